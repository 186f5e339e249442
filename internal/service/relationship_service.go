package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/d60-Lab/recipehub/internal/cache"
	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/internal/repository"
	"github.com/d60-Lab/recipehub/pkg/logger"
)

// RelationshipService 关系链服务
type RelationshipService interface {
	// ToggleFollow 无边则关注，有边则取关；两种转换都返回 true
	ToggleFollow(ctx context.Context, auth model.Auth, followeeID int64) (bool, error)
	ListFollowing(ctx context.Context, userID int64, page, pageSize int) ([]int64, error)
	ListFollowers(ctx context.Context, userID int64, page, pageSize int) ([]int64, error)
}

type relationshipService struct {
	store *repository.Store
	cache *cache.FollowCache
}

func NewRelationshipService(store *repository.Store, fc *cache.FollowCache) RelationshipService {
	return &relationshipService{store: store, cache: fc}
}

func (s *relationshipService) ToggleFollow(ctx context.Context, auth model.Auth, followeeID int64) (bool, error) {
	if auth.UserID <= 0 {
		return false, unauthorizedf("missing user id")
	}
	if auth.UserID == followeeID {
		return false, unauthorizedf("cannot follow self")
	}

	var followed bool
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authenticate(ctx, tx, auth); err != nil {
			return err
		}
		// 按 ID 升序锁住双方，同一对用户的并发切换在此串行
		users, err := tx.Users.LockActive(ctx, auth.UserID, followeeID)
		if err != nil {
			return err
		}
		if len(users) != 2 {
			return unauthorizedf("user %d not found or deleted", followeeID)
		}

		exists, err := tx.Follows.Exists(ctx, auth.UserID, followeeID)
		if err != nil {
			return err
		}
		if exists {
			if _, err := tx.Follows.Delete(ctx, auth.UserID, followeeID); err != nil {
				return err
			}
			return tx.Users.AdjustFollowCounts(ctx, auth.UserID, followeeID, -1)
		}
		if err := tx.Follows.Create(ctx, auth.UserID, followeeID); err != nil {
			return err
		}
		followed = true
		return tx.Users.AdjustFollowCounts(ctx, auth.UserID, followeeID, 1)
	})
	if err != nil {
		return false, err
	}

	s.cache.Invalidate(ctx, auth.UserID, followeeID)
	logger.Debug("follow toggled",
		zap.Int64("follower", auth.UserID), zap.Int64("followee", followeeID), zap.Bool("following", followed))
	return true, nil
}

func (s *relationshipService) ListFollowing(ctx context.Context, userID int64, page, pageSize int) ([]int64, error) {
	page, pageSize = clampPage(page, pageSize, 10)
	items, err := s.store.Follows.ListFollowings(ctx, userID, model.Offset(page, pageSize), pageSize)
	if err != nil {
		return nil, err
	}
	res := make([]int64, len(items))
	for i, it := range items {
		res[i] = it.FolloweeID
	}
	return res, nil
}

func (s *relationshipService) ListFollowers(ctx context.Context, userID int64, page, pageSize int) ([]int64, error) {
	page, pageSize = clampPage(page, pageSize, 10)
	items, err := s.store.Follows.ListFollowers(ctx, userID, model.Offset(page, pageSize), pageSize)
	if err != nil {
		return nil, err
	}
	res := make([]int64, len(items))
	for i, it := range items {
		res[i] = it.FollowerID
	}
	return res, nil
}

// clampPage page 下限 1，pageSize 非正时取默认值，上限 200
func clampPage(page, pageSize, def int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = def
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

const maxPageSize = 200
