package model

import (
	"encoding/json"
	"time"
)

// Session 对应 session 表，一个用户下的一段对话。
type Session struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    int64     `gorm:"not null;index"`
	Title     string    `gorm:"type:varchar(255);not null;default:''"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Session) TableName() string {
	return "session"
}

// MarshalJSON 以 "YYYY-MM-DD HH:MM:SS" 格式输出时间字段。
func (s Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        int64     `json:"id"`
		UserID    int64     `json:"userId"`
		Title     string    `json:"title"`
		CreatedAt LocalTime `json:"createdAt"`
		UpdatedAt LocalTime `json:"updatedAt"`
	}{s.ID, s.UserID, s.Title, LocalTime(s.CreatedAt), LocalTime(s.UpdatedAt)})
}
