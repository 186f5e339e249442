package model

import (
	"time"
)

// Follow 关注关系（A 关注 B）
type Follow struct {
	// 复合主键 (follower_id, followee_id)，避免重复关注
	FollowerID int64 `json:"follower_id" gorm:"primaryKey;autoIncrement:false"`
	FolloweeID int64 `json:"followee_id" gorm:"primaryKey;autoIncrement:false;index:idx_follow_followee"`
	CreatedAt  time.Time
}

func (Follow) TableName() string { return "follows" }
