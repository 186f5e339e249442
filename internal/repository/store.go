package repository

import (
	"context"

	"gorm.io/gorm"
)

// SequenceOptions 各实体的主键分配参数
type SequenceOptions struct {
	UserFloor   int64
	MaxAttempts int
}

// Store 聚合各仓储，Transaction 内得到绑定同一事务的副本
type Store struct {
	db   *gorm.DB
	opts SequenceOptions

	Users   UserRepository
	Follows FollowRepository
	Recipes RecipeRepository
	Reviews ReviewRepository
	Likes   LikeRepository
}

func NewStore(db *gorm.DB, opts SequenceOptions) *Store {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 3
	}
	s := &Store{db: db, opts: opts}
	s.Users = NewUserRepository(db, NewSequence("users", opts.UserFloor, opts.MaxAttempts))
	s.Follows = NewFollowRepository(db)
	s.Recipes = NewRecipeRepository(db, NewSequence("recipes", 0, opts.MaxAttempts))
	s.Reviews = NewReviewRepository(db, NewSequence("reviews", 0, opts.MaxAttempts))
	s.Likes = NewLikeRepository(db)
	return s
}

// DB 返回底层连接（事务副本中为事务句柄）
func (s *Store) DB() *gorm.DB { return s.db }

// Transaction 在单个事务内执行 fn；fn 返回错误时整体回滚
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx, s.opts))
	})
}
