package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/d60-Lab/recipehub/internal/repository"
)

// 错误类型：传输层据此映射响应码
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// FailedID 注册重试耗尽或目标菜谱不存在时返回的哨兵 ID
const FailedID int64 = -1

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func unauthorizedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, fmt.Sprintf(format, args...))
}

func isNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }

// IsAllocationExhausted 主键分配多次冲突后失败
func IsAllocationExhausted(err error) bool {
	return errors.Is(err, repository.ErrAllocationExhausted)
}
