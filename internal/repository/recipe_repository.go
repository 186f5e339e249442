package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/recipehub/internal/model"
)

// RecipeFilter 搜索条件；空值表示不过滤
type RecipeFilter struct {
	Keyword   string
	Category  string
	MinRating *float64
	Sort      string
	Offset    int
	Limit     int
}

// CaloriePoint 参与最近卡路里对计算的点
type CaloriePoint struct {
	ID       int64
	Calories float64
}

type RecipeRepository interface {
	// Create 分配 ID 并写入菜谱及配料行（同一事务）
	Create(ctx context.Context, rec *model.Recipe, ingredients []string) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Recipe, error)
	LockForUpdate(ctx context.Context, id int64) (*model.Recipe, error)
	Name(ctx context.Context, id int64) (string, error)
	Search(ctx context.Context, f RecipeFilter) ([]*model.Recipe, int64, error)
	Ingredients(ctx context.Context, ids ...int64) (map[int64][]string, error)
	// DeleteCascade 依次删除点赞、评论、配料与菜谱本身；调用方负责事务
	DeleteCascade(ctx context.Context, id int64) error
	UpdateTimes(ctx context.Context, id int64, cook, prep, total string) error
	UpdateRating(ctx context.Context, id int64, rating float64, count int64) error
	Feed(ctx context.Context, followerID int64, category string, offset, limit int) ([]*model.FeedItem, int64, error)
	CaloriePoints(ctx context.Context) ([]CaloriePoint, error)
	TopByIngredientCount(ctx context.Context, limit int) ([]model.ComplexRecipe, error)
	CreateInBatches(ctx context.Context, recipes []model.Recipe, ingredients []model.Ingredient) error
}

type recipeRepository struct {
	db  *gorm.DB
	seq Sequence
}

func NewRecipeRepository(db *gorm.DB, seq Sequence) RecipeRepository {
	return &recipeRepository{db: db, seq: seq}
}

func (r *recipeRepository) Create(ctx context.Context, rec *model.Recipe, ingredients []string) (int64, error) {
	return r.seq.Insert(ctx, r.db, func(tx *gorm.DB, id int64) error {
		rec.ID = id
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		if len(ingredients) == 0 {
			return nil
		}
		rows := make([]model.Ingredient, len(ingredients))
		for i, part := range ingredients {
			rows[i] = model.Ingredient{RecipeID: id, Part: part}
		}
		return tx.Create(&rows).Error
	})
}

func (r *recipeRepository) withAuthor(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.Recipe{}).
		Select("recipes.*, users.name AS author_name").
		Joins("LEFT JOIN users ON users.id = recipes.author_id")
}

func (r *recipeRepository) GetByID(ctx context.Context, id int64) (*model.Recipe, error) {
	var rec model.Recipe
	if err := r.withAuthor(ctx).Where("recipes.id = ?", id).Take(&rec).Error; err != nil {
		return nil, err
	}
	parts, err := r.Ingredients(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Ingredients = parts[id]
	if rec.Ingredients == nil {
		rec.Ingredients = []string{}
	}
	return &rec, nil
}

func (r *recipeRepository) LockForUpdate(ctx context.Context, id int64) (*model.Recipe, error) {
	var rec model.Recipe
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *recipeRepository) Name(ctx context.Context, id int64) (string, error) {
	var rec model.Recipe
	if err := r.db.WithContext(ctx).Select("id", "name").Where("id = ?", id).First(&rec).Error; err != nil {
		return "", err
	}
	return rec.Name, nil
}

// likeEscaper 关键字按字面子串匹配，转义 LIKE 通配符
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *recipeRepository) Search(ctx context.Context, f RecipeFilter) ([]*model.Recipe, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Recipe{})
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(kw)) + "%"
		q = q.Where(`(LOWER(recipes.name) LIKE ? ESCAPE '\' OR LOWER(recipes.description) LIKE ? ESCAPE '\')`, like, like)
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		q = q.Where("recipes.category = ?", c)
	}
	if f.MinRating != nil {
		q = q.Where("recipes.aggregated_rating >= ?", *f.MinRating)
	}
	// 条件复用于 count 与分页查询
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []*model.Recipe
	err := q.Select("recipes.*, users.name AS author_name").
		Joins("LEFT JOIN users ON users.id = recipes.author_id").
		Order(searchOrder(f.Sort)).
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachIngredients(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func searchOrder(sort string) string {
	switch sort {
	case model.SortDateDesc:
		return "recipes.date_published DESC, recipes.id DESC"
	case model.SortCaloriesAsc:
		// 空卡路里排在最后
		return "CASE WHEN recipes.calories IS NULL THEN 1 ELSE 0 END, recipes.calories ASC, recipes.id ASC"
	default:
		return "recipes.aggregated_rating DESC, recipes.id DESC"
	}
}

func (r *recipeRepository) attachIngredients(ctx context.Context, items []*model.Recipe) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	parts, err := r.Ingredients(ctx, ids...)
	if err != nil {
		return err
	}
	for _, it := range items {
		it.Ingredients = parts[it.ID]
		if it.Ingredients == nil {
			it.Ingredients = []string{}
		}
	}
	return nil
}

// Ingredients 按 recipe_id 分组返回配料，组内按字母序（不区分大小写）
func (r *recipeRepository) Ingredients(ctx context.Context, ids ...int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []model.Ingredient
	if err := r.db.WithContext(ctx).
		Where("recipe_id IN ?", ids).
		Order("recipe_id, LOWER(part), part").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.RecipeID] = append(out[row.RecipeID], row.Part)
	}
	return out, nil
}

func (r *recipeRepository) DeleteCascade(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	reviewIDs := db.Model(&model.Review{}).Select("id").Where("recipe_id = ?", id)
	if err := db.Where("review_id IN (?)", reviewIDs).Delete(&model.ReviewLike{}).Error; err != nil {
		return fmt.Errorf("delete likes: %w", err)
	}
	if err := db.Where("recipe_id = ?", id).Delete(&model.Review{}).Error; err != nil {
		return fmt.Errorf("delete reviews: %w", err)
	}
	if err := db.Where("recipe_id = ?", id).Delete(&model.Ingredient{}).Error; err != nil {
		return fmt.Errorf("delete ingredients: %w", err)
	}
	if err := db.Where("id = ?", id).Delete(&model.Recipe{}).Error; err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return nil
}

func (r *recipeRepository) UpdateTimes(ctx context.Context, id int64, cook, prep, total string) error {
	return r.db.WithContext(ctx).
		Model(&model.Recipe{}).
		Where("id = ?", id).
		Updates(map[string]any{"cook_time": cook, "prep_time": prep, "total_time": total}).Error
}

func (r *recipeRepository) UpdateRating(ctx context.Context, id int64, rating float64, count int64) error {
	return r.db.WithContext(ctx).
		Model(&model.Recipe{}).
		Where("id = ?", id).
		Updates(map[string]any{"aggregated_rating": rating, "review_count": count}).Error
}

func (r *recipeRepository) Feed(ctx context.Context, followerID int64, category string, offset, limit int) ([]*model.FeedItem, int64, error) {
	followees := r.db.WithContext(ctx).Model(&model.Follow{}).Select("followee_id").Where("follower_id = ?", followerID)
	q := r.db.WithContext(ctx).Model(&model.Recipe{}).Where("recipes.author_id IN (?)", followees)
	if c := strings.TrimSpace(category); c != "" {
		q = q.Where("recipes.category = ?", c)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []*model.FeedItem
	err := q.Select(`recipes.id AS recipe_id, recipes.name, recipes.author_id, users.name AS author_name,
			recipes.date_published, recipes.aggregated_rating, recipes.review_count`).
		Joins("LEFT JOIN users ON users.id = recipes.author_id").
		Order("recipes.date_published DESC, recipes.id DESC").
		Offset(offset).
		Limit(limit).
		Scan(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *recipeRepository) CaloriePoints(ctx context.Context) ([]CaloriePoint, error) {
	var pts []CaloriePoint
	err := r.db.WithContext(ctx).
		Model(&model.Recipe{}).
		Select("id, calories").
		Where("calories IS NOT NULL").
		Order("calories ASC, id ASC").
		Scan(&pts).Error
	return pts, err
}

func (r *recipeRepository) TopByIngredientCount(ctx context.Context, limit int) ([]model.ComplexRecipe, error) {
	var rows []model.ComplexRecipe
	err := r.db.WithContext(ctx).
		Table("recipes").
		Select("recipes.id AS recipe_id, recipes.name, COUNT(DISTINCT recipe_ingredients.part) AS ingredient_count").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.recipe_id = recipes.id").
		Group("recipes.id, recipes.name").
		Order("ingredient_count DESC, recipes.id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *recipeRepository) CreateInBatches(ctx context.Context, recipes []model.Recipe, ingredients []model.Ingredient) error {
	db := r.db.WithContext(ctx)
	if len(recipes) > 0 {
		if err := db.CreateInBatches(&recipes, 500).Error; err != nil {
			return err
		}
	}
	if len(ingredients) > 0 {
		if err := db.CreateInBatches(&ingredients, 1000).Error; err != nil {
			return err
		}
	}
	return nil
}
