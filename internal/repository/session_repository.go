package repository

import (
	"context"

	"gorm.io/gorm"

	"aichat-go/internal/model"
	"aichat-go/pkg/database"
)

// SessionRepository 定义了会话（session 表）的持久化操作。
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	FindByUserID(ctx context.Context, userID int64) ([]model.Session, error)
	FindByID(ctx context.Context, id int64) (*model.Session, error)
	SetTitleIfEmpty(ctx context.Context, userID, id int64, title string) (bool, error)
	Delete(ctx context.Context, id int64) (promptUsers []int64, err error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建一个新的 SessionRepository 实例。
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	return database.WithConn(ctx, r.db, func(conn *gorm.DB) error {
		return conn.Create(session).Error
	})
}

// FindByUserID 返回用户的全部会话，最近更新的在前。
func (r *sessionRepository) FindByUserID(ctx context.Context, userID int64) ([]model.Session, error) {
	var sessions []model.Session
	err := database.WithConn(ctx, r.db, func(conn *gorm.DB) error {
		return conn.Where("user_id = ?", userID).
			Order("updated_at DESC").Order("id DESC").
			Find(&sessions).Error
	})
	return sessions, err
}

func (r *sessionRepository) FindByID(ctx context.Context, id int64) (*model.Session, error) {
	var session model.Session
	err := database.WithConn(ctx, r.db, func(conn *gorm.DB) error {
		return conn.First(&session, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SetTitleIfEmpty 仅在会话属于该用户且标题为空时写入，返回是否真的更新了。
func (r *sessionRepository) SetTitleIfEmpty(ctx context.Context, userID, id int64, title string) (bool, error) {
	var updated bool
	err := database.WithConn(ctx, r.db, func(conn *gorm.DB) error {
		res := conn.Model(&model.Session{}).
			Where("id = ? AND user_id = ? AND title = ?", id, userID, "").
			Update("title", title)
		updated = res.RowsAffected > 0
		return res.Error
	})
	return updated, err
}

// Delete 在一个事务里删除会话及其下的消息和提示词，返回被删提示词涉及的用户，
// 供调用方清理提示词缓存。会话不存在时返回 gorm.ErrRecordNotFound，且什么都不删。
func (r *sessionRepository) Delete(ctx context.Context, id int64) ([]int64, error) {
	var promptUsers []int64
	err := database.WithConn(ctx, r.db, func(conn *gorm.DB) error {
		return conn.Transaction(func(tx *gorm.DB) error {
			res := tx.Delete(&model.Session{}, id)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
			if err := tx.Model(&model.Prompt{}).Where("session_id = ?", id).
				Distinct().Pluck("user_id", &promptUsers).Error; err != nil {
				return err
			}
			if err := tx.Where("session_id = ?", id).Delete(&model.Prompt{}).Error; err != nil {
				return err
			}
			return tx.Where("session_id = ?", id).Delete(&model.Chat{}).Error
		})
	})
	if err != nil {
		return nil, err
	}
	return promptUsers, nil
}
