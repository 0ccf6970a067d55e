// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"context"

	"gorm.io/gorm"

	"aichat-go/internal/model"
	"aichat-go/pkg/database"
)

// ChatRepository 定义了对话轮次（chat 表）的持久化操作。
// 每个方法都从连接池取一个连接，执行后无论成败都归还。
type ChatRepository interface {
	FetchRecentTurns(ctx context.Context, userID, sessionID int64, limit int) ([]model.ChatMessage, error)
	ListTurns(ctx context.Context, userID, sessionID int64) ([]model.Chat, error)
	AppendTurns(ctx context.Context, turns ...model.Chat) error
	DeleteSessionTurns(ctx context.Context, sessionID int64) error
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository 创建一个新的 ChatRepository 实例。
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// FetchRecentTurns 取某会话最近的 limit 条消息，按时间正序返回（最早的在前）。
func (r *chatRepository) FetchRecentTurns(ctx context.Context, userID, sessionID int64, limit int) ([]model.ChatMessage, error) {
	var rows []model.Chat
	err := database.WithConn(ctx, r.db, func(conn *gorm.DB) error {
		return conn.Select("id", "role", "content").
			Where("user_id = ? AND session_id = ?", userID, sessionID).
			Order("id DESC").
			Limit(limit).
			Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	// 存储中按倒序取出，反转成对话顺序
	messages := make([]model.ChatMessage, len(rows))
	for i, row := range rows {
		messages[len(rows)-1-i] = model.ChatMessage{Role: row.Role, Content: row.Content}
	}
	return messages, nil
}

// ListTurns 返回某会话的全部消息，按插入顺序。
func (r *chatRepository) ListTurns(ctx context.Context, userID, sessionID int64) ([]model.Chat, error) {
	var rows []model.Chat
	err := database.WithConn(ctx, r.db, func(conn *gorm.DB) error {
		return conn.Where("user_id = ? AND session_id = ?", userID, sessionID).
			Order("id ASC").
			Find(&rows).Error
	})
	return rows, err
}

// AppendTurns 用一条多行 INSERT 追加消息，保持传入顺序。
func (r *chatRepository) AppendTurns(ctx context.Context, turns ...model.Chat) error {
	if len(turns) == 0 {
		return nil
	}
	return database.WithConn(ctx, r.db, func(conn *gorm.DB) error {
		return conn.Create(&turns).Error
	})
}

// DeleteSessionTurns 删除某会话下的全部消息。
func (r *chatRepository) DeleteSessionTurns(ctx context.Context, sessionID int64) error {
	return database.WithConn(ctx, r.db, func(conn *gorm.DB) error {
		return conn.Where("session_id = ?", sessionID).Delete(&model.Chat{}).Error
	})
}
