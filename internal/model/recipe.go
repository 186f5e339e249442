package model

import "time"

// Recipe 菜谱；AggregatedRating / ReviewCount 由评论表派生
type Recipe struct {
	ID            int64     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name          string    `json:"name" gorm:"type:varchar(500);not null"`
	AuthorID      int64     `json:"author_id" gorm:"index:idx_recipe_author;not null"`
	AuthorName    string    `json:"author_name" gorm:"->;-:migration"`
	CookTime      string    `json:"cook_time" gorm:"type:varchar(50)"`
	PrepTime      string    `json:"prep_time" gorm:"type:varchar(50)"`
	TotalTime     string    `json:"total_time" gorm:"type:varchar(50)"`
	DatePublished time.Time `json:"date_published" gorm:"index:idx_recipe_published"`
	Description   string    `json:"description" gorm:"type:text"`
	Category      string    `json:"category" gorm:"type:varchar(255);index:idx_recipe_category"`

	AggregatedRating float64 `json:"aggregated_rating" gorm:"not null;default:0"`
	ReviewCount      int64   `json:"review_count" gorm:"not null;default:0"`

	Calories            *float64 `json:"calories"`
	FatContent          *float64 `json:"fat_content"`
	SaturatedFatContent *float64 `json:"saturated_fat_content"`
	CholesterolContent  *float64 `json:"cholesterol_content"`
	SodiumContent       *float64 `json:"sodium_content"`
	CarbohydrateContent *float64 `json:"carbohydrate_content"`
	FiberContent        *float64 `json:"fiber_content"`
	SugarContent        *float64 `json:"sugar_content"`
	ProteinContent      *float64 `json:"protein_content"`
	Servings            int      `json:"servings"`
	Yield               string   `json:"yield" gorm:"type:varchar(100)"`

	Ingredients []string `json:"ingredients" gorm:"-"`
}

func (Recipe) TableName() string { return "recipes" }

// Ingredient 菜谱配料行，(recipe_id, part) 唯一
type Ingredient struct {
	RecipeID int64  `gorm:"primaryKey;autoIncrement:false"`
	Part     string `gorm:"primaryKey;type:varchar(500)"`
}

func (Ingredient) TableName() string { return "recipe_ingredients" }

// FeedItem 关注流条目
type FeedItem struct {
	RecipeID         int64     `json:"recipe_id"`
	Name             string    `json:"name"`
	AuthorID         int64     `json:"author_id"`
	AuthorName       string    `json:"author_name"`
	DatePublished    time.Time `json:"date_published"`
	AggregatedRating float64   `json:"aggregated_rating"`
	ReviewCount      int64     `json:"review_count"`
}
