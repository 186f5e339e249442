package model

// IDWatermark 每张表已分配过的最大 ID，删除最大行后也不回退
type IDWatermark struct {
	Name   string `gorm:"primaryKey;type:varchar(64)"`
	LastID int64  `gorm:"not null"`
}

func (IDWatermark) TableName() string { return "id_watermarks" }
