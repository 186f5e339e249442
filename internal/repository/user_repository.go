package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/recipehub/internal/model"
)

// FollowCounts 由 follows 表实时统计的关注数据
type FollowCounts struct {
	ID             int64
	Name           string
	FollowerCount  int64
	FollowingCount int64
}

type UserRepository interface {
	// Create 分配 ID 并写入用户，返回新 ID
	Create(ctx context.Context, u *model.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// LockActive 以 FOR UPDATE 按 ID 升序锁定未删除的用户
	LockActive(ctx context.Context, ids ...int64) ([]*model.User, error)
	NameExists(ctx context.Context, name string) (bool, error)
	UpdateProfile(ctx context.Context, id int64, gender *string, age *int) (int64, error)
	MarkDeleted(ctx context.Context, id int64) error
	// AdjustFollowCounts follower.following_count 与 followee.follower_count 同时加 delta，下限 0
	AdjustFollowCounts(ctx context.Context, followerID, followeeID int64, delta int) error
	// ActiveFollowCounts 未删除且关注数 > 0 的用户及其实时计数
	ActiveFollowCounts(ctx context.Context) ([]FollowCounts, error)
	CreateInBatches(ctx context.Context, users []model.User) error
}

type userRepository struct {
	db  *gorm.DB
	seq Sequence
}

func NewUserRepository(db *gorm.DB, seq Sequence) UserRepository {
	return &userRepository{db: db, seq: seq}
}

func (r *userRepository) Create(ctx context.Context, u *model.User) (int64, error) {
	return r.seq.Insert(ctx, r.db, func(tx *gorm.DB, id int64) error {
		u.ID = id
		return tx.Create(u).Error
	})
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) LockActive(ctx context.Context, ids ...int64) ([]*model.User, error) {
	var users []*model.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ? AND is_deleted = ?", ids, false).
		Order("id").
		Find(&users).Error
	return users, err
}

func (r *userRepository) NameExists(ctx context.Context, name string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("name = ?", name).Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id int64, gender *string, age *int) (int64, error) {
	updates := map[string]any{}
	if gender != nil {
		updates["gender"] = *gender
	}
	if age != nil {
		updates["age"] = *age
	}
	if len(updates) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// MarkDeleted 软删除并级联移除所有相关关注边，同步修正对端计数
func (r *userRepository) MarkDeleted(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)

	followees := db.Model(&model.Follow{}).Select("followee_id").Where("follower_id = ?", id)
	if err := db.Model(&model.User{}).
		Where("id IN (?)", followees).
		Update("follower_count", decrement("follower_count", 1)).Error; err != nil {
		return fmt.Errorf("fix follower counts: %w", err)
	}
	followers := db.Model(&model.Follow{}).Select("follower_id").Where("followee_id = ?", id)
	if err := db.Model(&model.User{}).
		Where("id IN (?)", followers).
		Update("following_count", decrement("following_count", 1)).Error; err != nil {
		return fmt.Errorf("fix following counts: %w", err)
	}
	if err := db.Where("follower_id = ? OR followee_id = ?", id, id).Delete(&model.Follow{}).Error; err != nil {
		return fmt.Errorf("delete follows: %w", err)
	}
	return db.Model(&model.User{}).Where("id = ?", id).Updates(map[string]any{
		"is_deleted":      true,
		"follower_count":  0,
		"following_count": 0,
	}).Error
}

func (r *userRepository) AdjustFollowCounts(ctx context.Context, followerID, followeeID int64, delta int) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.User{}).Where("id = ?", followerID).
		Update("following_count", adjust("following_count", delta)).Error; err != nil {
		return err
	}
	return db.Model(&model.User{}).Where("id = ?", followeeID).
		Update("follower_count", adjust("follower_count", delta)).Error
}

func (r *userRepository) ActiveFollowCounts(ctx context.Context) ([]FollowCounts, error) {
	var rows []FollowCounts
	err := r.db.WithContext(ctx).Raw(`
		SELECT u.id, u.name,
		       COALESCE(f1.cnt, 0) AS follower_count,
		       COALESCE(f2.cnt, 0) AS following_count
		FROM users u
		LEFT JOIN (SELECT followee_id, COUNT(*) AS cnt FROM follows GROUP BY followee_id) f1 ON f1.followee_id = u.id
		LEFT JOIN (SELECT follower_id, COUNT(*) AS cnt FROM follows GROUP BY follower_id) f2 ON f2.follower_id = u.id
		WHERE u.is_deleted = ? AND COALESCE(f2.cnt, 0) > 0
		ORDER BY u.id
	`, false).Scan(&rows).Error
	return rows, err
}

func (r *userRepository) CreateInBatches(ctx context.Context, users []model.User) error {
	if len(users) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&users, 1000).Error
}

func adjust(column string, delta int) clause.Expr {
	if delta >= 0 {
		return gorm.Expr(column+" + ?", delta)
	}
	return decrement(column, -delta)
}

func decrement(column string, n int) clause.Expr {
	return gorm.Expr("CASE WHEN "+column+" >= ? THEN "+column+" - ? ELSE 0 END", n, n)
}
