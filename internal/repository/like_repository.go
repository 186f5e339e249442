package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/recipehub/internal/model"
)

type LikeRepository interface {
	Add(ctx context.Context, reviewID, userID int64) error
	Remove(ctx context.Context, reviewID, userID int64) error
	Count(ctx context.Context, reviewID int64) (int64, error)
	// Likers 按 review 分组返回点赞用户 ID（升序）
	Likers(ctx context.Context, reviewIDs ...int64) (map[int64][]int64, error)
	CreateInBatches(ctx context.Context, likes []model.ReviewLike) error
}

type likeRepository struct{ db *gorm.DB }

func NewLikeRepository(db *gorm.DB) LikeRepository { return &likeRepository{db: db} }

func (r *likeRepository) Add(ctx context.Context, reviewID, userID int64) error {
	l := &model.ReviewLike{ReviewID: reviewID, UserID: userID}
	// 幂等：重复点赞不报错
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(l).Error
}

func (r *likeRepository) Remove(ctx context.Context, reviewID, userID int64) error {
	return r.db.WithContext(ctx).
		Where("review_id = ? AND user_id = ?", reviewID, userID).
		Delete(&model.ReviewLike{}).Error
}

func (r *likeRepository) Count(ctx context.Context, reviewID int64) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.ReviewLike{}).Where("review_id = ?", reviewID).Count(&cnt).Error
	return cnt, err
}

func (r *likeRepository) Likers(ctx context.Context, reviewIDs ...int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(reviewIDs))
	if len(reviewIDs) == 0 {
		return out, nil
	}
	var rows []model.ReviewLike
	if err := r.db.WithContext(ctx).
		Where("review_id IN ?", reviewIDs).
		Order("review_id, user_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ReviewID] = append(out[row.ReviewID], row.UserID)
	}
	return out, nil
}

func (r *likeRepository) CreateInBatches(ctx context.Context, likes []model.ReviewLike) error {
	if len(likes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&likes, 1000).Error
}
