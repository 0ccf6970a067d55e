package model

import (
	"time"

	"gorm.io/gorm"
)

// User 对应 user 表。删除为软删除。
type User struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string         `gorm:"type:varchar(64);not null;uniqueIndex" json:"name"`
	Password  string         `gorm:"type:varchar(255);not null" json:"-"`
	Icon      string         `gorm:"type:varchar(512)" json:"icon"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (User) TableName() string {
	return "user"
}
