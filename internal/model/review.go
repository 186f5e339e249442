package model

import "time"

// Review 评论；删除时级联删除点赞
type Review struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	RecipeID    int64     `json:"recipe_id" gorm:"index:idx_review_recipe;not null"`
	AuthorID    int64     `json:"author_id" gorm:"index:idx_review_author;not null"`
	AuthorName  string    `json:"author_name" gorm:"->;-:migration"`
	Rating      int       `json:"rating" gorm:"not null"`
	Text        *string   `json:"text" gorm:"type:text"`
	SubmittedAt time.Time `json:"submitted_at"`
	ModifiedAt  time.Time `json:"modified_at" gorm:"index:idx_review_modified"`

	LikeCount int64   `json:"like_count" gorm:"->;-:migration"`
	Likes     []int64 `json:"likes" gorm:"-"`
}

func (Review) TableName() string { return "reviews" }

// ReviewLike 点赞事实 (review_id, user_id)
type ReviewLike struct {
	ReviewID  int64 `gorm:"primaryKey;autoIncrement:false"`
	UserID    int64 `gorm:"primaryKey;autoIncrement:false;index:idx_like_user"`
	CreatedAt time.Time
}

func (ReviewLike) TableName() string { return "review_likes" }
