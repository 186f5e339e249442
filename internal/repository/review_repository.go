package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/recipehub/internal/model"
)

// RatingStats 某菜谱的评论统计
type RatingStats struct {
	ReviewCount int64
	RatingSum   int64
}

type ReviewRepository interface {
	Create(ctx context.Context, rv *model.Review) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Review, error)
	Update(ctx context.Context, id int64, rating int, text *string, modifiedAt time.Time) error
	// Delete 先删点赞再删评论；调用方负责事务
	Delete(ctx context.Context, id int64) error
	ListByRecipe(ctx context.Context, recipeID int64, sort string, offset, limit int) ([]*model.Review, int64, error)
	Stats(ctx context.Context, recipeID int64) (RatingStats, error)
	CreateInBatches(ctx context.Context, reviews []model.Review) error
}

type reviewRepository struct {
	db  *gorm.DB
	seq Sequence
}

func NewReviewRepository(db *gorm.DB, seq Sequence) ReviewRepository {
	return &reviewRepository{db: db, seq: seq}
}

func (r *reviewRepository) Create(ctx context.Context, rv *model.Review) (int64, error) {
	return r.seq.Insert(ctx, r.db, func(tx *gorm.DB, id int64) error {
		rv.ID = id
		return tx.Create(rv).Error
	})
}

func (r *reviewRepository) GetByID(ctx context.Context, id int64) (*model.Review, error) {
	var rv model.Review
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rv).Error; err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepository) Update(ctx context.Context, id int64, rating int, text *string, modifiedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("id = ?", id).
		Updates(map[string]any{"rating": rating, "text": text, "modified_at": modifiedAt}).Error
}

func (r *reviewRepository) Delete(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("review_id = ?", id).Delete(&model.ReviewLike{}).Error; err != nil {
		return fmt.Errorf("delete likes: %w", err)
	}
	return db.Where("id = ?", id).Delete(&model.Review{}).Error
}

const likeCountExpr = "(SELECT COUNT(*) FROM review_likes WHERE review_likes.review_id = reviews.id)"

func (r *reviewRepository) ListByRecipe(ctx context.Context, recipeID int64, sort string, offset, limit int) ([]*model.Review, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&model.Review{}).Where("recipe_id = ?", recipeID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "reviews.modified_at DESC, reviews.id DESC"
	if sort == model.SortLikesDesc {
		order = "like_count DESC, " + order
	}

	var items []*model.Review
	err := db.Model(&model.Review{}).
		Select("reviews.*, users.name AS author_name, "+likeCountExpr+" AS like_count").
		Joins("LEFT JOIN users ON users.id = reviews.author_id").
		Where("reviews.recipe_id = ?", recipeID).
		Order(order).
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *reviewRepository) Stats(ctx context.Context, recipeID int64) (RatingStats, error) {
	var st RatingStats
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Select("COUNT(*) AS review_count, COALESCE(SUM(rating), 0) AS rating_sum").
		Where("recipe_id = ?", recipeID).
		Scan(&st).Error
	return st, err
}

func (r *reviewRepository) CreateInBatches(ctx context.Context, reviews []model.Review) error {
	if len(reviews) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&reviews, 1000).Error
}
