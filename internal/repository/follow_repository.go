package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/recipehub/internal/model"
)

type FollowRepository interface {
	Create(ctx context.Context, followerID, followeeID int64) error
	Delete(ctx context.Context, followerID, followeeID int64) (int64, error)
	Exists(ctx context.Context, followerID, followeeID int64) (bool, error)
	ListFollowings(ctx context.Context, followerID int64, offset, limit int) ([]*model.Follow, error)
	ListFollowers(ctx context.Context, followeeID int64, offset, limit int) ([]*model.Follow, error)
	FollowingIDs(ctx context.Context, followerID int64) ([]int64, error)
	FollowerIDs(ctx context.Context, followeeID int64) ([]int64, error)
	CreateInBatches(ctx context.Context, edges []model.Follow) error
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository { return &followRepository{db: db} }

func (r *followRepository) Create(ctx context.Context, followerID, followeeID int64) error {
	f := &model.Follow{FollowerID: followerID, FolloweeID: followeeID}
	// 幂等：重复关注不报错
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(f).Error
}

func (r *followRepository) Delete(ctx context.Context, followerID, followeeID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&model.Follow{})
	return res.RowsAffected, res.Error
}

func (r *followRepository) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *followRepository) ListFollowings(ctx context.Context, followerID int64, offset, limit int) ([]*model.Follow, error) {
	var res []*model.Follow
	err := r.db.WithContext(ctx).
		Where("follower_id = ?", followerID).
		Order("created_at DESC, followee_id DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *followRepository) ListFollowers(ctx context.Context, followeeID int64, offset, limit int) ([]*model.Follow, error) {
	var res []*model.Follow
	err := r.db.WithContext(ctx).
		Where("followee_id = ?", followeeID).
		Order("created_at DESC, follower_id DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *followRepository) FollowingIDs(ctx context.Context, followerID int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("follower_id = ?", followerID).
		Order("followee_id").
		Pluck("followee_id", &ids).Error
	return ids, err
}

func (r *followRepository) FollowerIDs(ctx context.Context, followeeID int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("followee_id = ?", followeeID).
		Order("follower_id").
		Pluck("follower_id", &ids).Error
	return ids, err
}

func (r *followRepository) CreateInBatches(ctx context.Context, edges []model.Follow) error {
	if len(edges) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&edges, 1000).Error
}
