package service

import (
	"context"
	"strings"

	"aichat-go/internal/model"
	"aichat-go/internal/repository"
	"aichat-go/pkg/log"
	"aichat-go/pkg/tasks"
)

// HistoryService 定义了对话记录的管理操作，同时作为 Kafka 问答记录任务的处理器。
type HistoryService interface {
	ListTurns(ctx context.Context, userID, sessionID int64) ([]model.Chat, error)
	AddTurn(ctx context.Context, turn *model.Chat) error
	DeleteSessionTurns(ctx context.Context, sessionID int64) error
	Process(ctx context.Context, task tasks.TurnRecordTask) error
}

type historyService struct {
	repo repository.ChatRepository
}

// NewHistoryService 创建一个新的 HistoryService。
func NewHistoryService(repo repository.ChatRepository) HistoryService {
	return &historyService{repo: repo}
}

// ListTurns 返回会话的全部消息，按时间正序。
func (s *historyService) ListTurns(ctx context.Context, userID, sessionID int64) ([]model.Chat, error) {
	turns, err := s.repo.ListTurns(ctx, userID, sessionID)
	if err != nil {
		return nil, classify(ErrDatabase, err)
	}
	return turns, nil
}

// AddTurn 追加一条消息。
func (s *historyService) AddTurn(ctx context.Context, turn *model.Chat) error {
	if !turn.Role.Valid() {
		return invalid("role must be one of system/user/assistant, got %q", turn.Role)
	}
	if strings.TrimSpace(turn.Content) == "" {
		return invalid("content must not be empty")
	}
	turn.ID = 0
	if err := s.repo.AppendTurns(ctx, *turn); err != nil {
		return classify(ErrDatabase, err)
	}
	return nil
}

func (s *historyService) DeleteSessionTurns(ctx context.Context, sessionID int64) error {
	if err := s.repo.DeleteSessionTurns(ctx, sessionID); err != nil {
		return classify(ErrDatabase, err)
	}
	return nil
}

// Process 把一轮问答写成两条消息：user 问题与 assistant 回答。
func (s *historyService) Process(ctx context.Context, task tasks.TurnRecordTask) error {
	err := s.repo.AppendTurns(ctx,
		model.Chat{UserID: task.UserID, SessionID: task.SessionID, Role: model.RoleUser, Content: task.Question},
		model.Chat{UserID: task.UserID, SessionID: task.SessionID, Role: model.RoleAssistant, Content: task.Answer},
	)
	if err != nil {
		return classify(ErrDatabase, err)
	}
	log.Infow("问答已记录", "userId", task.UserID, "sessionId", task.SessionID)
	return nil
}
