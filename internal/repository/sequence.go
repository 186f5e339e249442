package repository

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/pkg/logger"
)

// ErrAllocationExhausted 多次主键冲突后放弃分配
var ErrAllocationExhausted = errors.New("id allocation retries exhausted")

// Sequence 以 max(MAX(id), 水位)+1 分配主键，已删除的 ID 不会再次分配。
// 读取与插入在同一事务（外层已有事务时为 savepoint）内完成，
// 并发分配撞到同一 ID 时由主键约束拒绝后者，后者重试，最多 maxAttempts 次。
type Sequence struct {
	table       string
	floor       int64
	maxAttempts int
}

func NewSequence(table string, floor int64, maxAttempts int) Sequence {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return Sequence{table: table, floor: floor, maxAttempts: maxAttempts}
}

// Insert 分配 ID 并调用 create 写入；create 必须使用传入的 tx
func (s Sequence) Insert(ctx context.Context, db *gorm.DB, create func(tx *gorm.DB, id int64) error) (int64, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		var id int64
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var current, mark int64
			if err := tx.Table(s.table).Select("COALESCE(MAX(id), ?)", s.floor).Scan(&current).Error; err != nil {
				return err
			}
			if err := tx.Model(&model.IDWatermark{}).Select("COALESCE(MAX(last_id), 0)").
				Where("name = ?", s.table).Scan(&mark).Error; err != nil {
				return err
			}
			id = max(current, mark) + 1
			if err := create(tx, id); err != nil {
				return err
			}
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"last_id"}),
			}).Create(&model.IDWatermark{Name: s.table, LastID: id}).Error
		})
		if err == nil {
			return id, nil
		}
		if !IsDuplicateKey(err) {
			return 0, err
		}
		logger.Warn("id allocation conflict, retrying",
			zap.String("table", s.table), zap.Int64("id", id), zap.Int("attempt", attempt))
	}
	return 0, ErrAllocationExhausted
}

// IsDuplicateKey 识别主键/唯一键冲突
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
