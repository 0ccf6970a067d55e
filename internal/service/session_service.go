package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"aichat-go/internal/model"
	"aichat-go/internal/repository"
	"aichat-go/pkg/log"
)

// SessionService 定义了会话的管理操作。
type SessionService interface {
	List(ctx context.Context, userID int64) ([]model.Session, error)
	Create(ctx context.Context, userID int64, title string) (*model.Session, error)
	Delete(ctx context.Context, id int64) error
}

type sessionService struct {
	sessionRepo repository.SessionRepository
	promptRepo  repository.PromptRepository
}

// NewSessionService 创建一个新的 SessionService。
func NewSessionService(sessionRepo repository.SessionRepository, promptRepo repository.PromptRepository) SessionService {
	return &sessionService{sessionRepo: sessionRepo, promptRepo: promptRepo}
}

func (s *sessionService) List(ctx context.Context, userID int64) ([]model.Session, error) {
	sessions, err := s.sessionRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, classify(ErrDatabase, err)
	}
	return sessions, nil
}

// Create 新建会话。标题可以为空，首轮问答生成摘要后会自动补上。
func (s *sessionService) Create(ctx context.Context, userID int64, title string) (*model.Session, error) {
	if userID <= 0 {
		return nil, invalid("userId must be positive")
	}
	session := &model.Session{UserID: userID, Title: strings.TrimSpace(title)}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, classify(ErrDatabase, err)
	}
	return session, nil
}

// Delete 删除会话及其消息与提示词，提交后再清理提示词缓存。
func (s *sessionService) Delete(ctx context.Context, id int64) error {
	promptUsers, err := s.sessionRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return classify(ErrNotFound, errors.New("会话不存在"))
		}
		return classify(ErrDatabase, err)
	}
	if err := s.promptRepo.EvictSessionPrompts(ctx, id, promptUsers); err != nil {
		log.Errorw("清理提示词缓存失败", "sessionId", id, "error", err)
		return classify(ErrDatabase, err)
	}
	log.Infow("会话已删除", "sessionId", id)
	return nil
}
