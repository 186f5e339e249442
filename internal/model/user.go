package model

import "time"

const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// User 用户；软删除，关注计数为 follows 表的冗余缓存
type User struct {
	ID             int64     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name           string    `json:"name" gorm:"type:varchar(255);uniqueIndex:ux_users_name;not null"`
	Gender         string    `json:"gender" gorm:"type:varchar(10);not null"`
	Age            int       `json:"age" gorm:"not null"`
	Credential     string    `json:"-" gorm:"type:varchar(255);not null"`
	IsDeleted      bool      `json:"is_deleted" gorm:"index;not null;default:false"`
	FollowerCount  int64     `json:"follower_count" gorm:"not null;default:0"`
	FollowingCount int64     `json:"following_count" gorm:"not null;default:0"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// UserProfile 个人主页：附带实时计算的关注/粉丝 ID 列表
type UserProfile struct {
	User
	FollowerIDs  []int64 `json:"follower_ids"`
	FollowingIDs []int64 `json:"following_ids"`
}

// Auth 每个写操作携带的凭证，由传输层原样传入
type Auth struct {
	UserID     int64  `json:"user_id"`
	Credential string `json:"credential"`
}
