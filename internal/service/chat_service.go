// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"aichat-go/internal/config"
	"aichat-go/internal/model"
	"aichat-go/internal/repository"
	"aichat-go/pkg/llm"
	"aichat-go/pkg/log"
	"aichat-go/pkg/tasks"
)

// ChatRequest 是一次问答请求。Prompt 非空时仅对本次调用覆盖会话提示词，不落库。
type ChatRequest struct {
	UserID    int64
	SessionID int64
	Question  string
	Prompt    string
}

// ChatResult 是问答结果。Summary 为 nil 表示本次没有生成摘要。
type ChatResult struct {
	Answer  string
	Summary *string
}

// SummaryPolicy 决定何时对一次问答追加一次摘要推理。
type SummaryPolicy struct {
	Enabled     bool
	MaxMessages int
	Instruction string
}

// ShouldSummarize 在组装后的消息数小于 MaxMessages 时返回 true，即会话的第一轮问答。
func (p SummaryPolicy) ShouldSummarize(messageCount int) bool {
	return p.Enabled && messageCount < p.MaxMessages
}

// TurnRecorder 持久化一轮问答。实现可以直接写库，也可以投递到 Kafka。
type TurnRecorder interface {
	Record(ctx context.Context, task tasks.TurnRecordTask) error
}

// RecorderFunc 把普通函数适配成 TurnRecorder。
type RecorderFunc func(ctx context.Context, task tasks.TurnRecordTask) error

// Record 调用 f(ctx, task)。
func (f RecorderFunc) Record(ctx context.Context, task tasks.TurnRecordTask) error {
	return f(ctx, task)
}

// ChatService 定义了问答与提示词操作的接口。
type ChatService interface {
	Ask(ctx context.Context, req ChatRequest) (*ChatResult, error)
	AddPrompt(ctx context.Context, userID, sessionID int64, prompt string) error
}

type chatService struct {
	chatRepo     repository.ChatRepository
	promptRepo   repository.PromptRepository
	sessionRepo  repository.SessionRepository
	llmClient    llm.Client
	historyLimit int
	summary      SummaryPolicy
	recorder     TurnRecorder
}

// NewChatService 创建一个新的 ChatService 实例。解码参数由 llm.Client 按配置下发。
// sessionRepo 为 nil 时不回写会话标题；recorder 为 nil 时不记录问答。
func NewChatService(
	chatRepo repository.ChatRepository,
	promptRepo repository.PromptRepository,
	sessionRepo repository.SessionRepository,
	llmClient llm.Client,
	chatCfg config.ChatConfig,
	recorder TurnRecorder,
) ChatService {
	limit := chatCfg.HistoryLimit
	if limit <= 0 {
		limit = model.DefaultHistoryLimit
	}
	return &chatService{
		chatRepo:     chatRepo,
		promptRepo:   promptRepo,
		sessionRepo:  sessionRepo,
		llmClient:    llmClient,
		historyLimit: limit,
		summary: SummaryPolicy{
			Enabled:     chatCfg.Summary.Enabled,
			MaxMessages: chatCfg.Summary.MaxMessages,
			Instruction: chatCfg.Summary.Instruction,
		},
		recorder: recorder,
	}
}

// Ask 读取提示词与最近历史，组装上下文并调用 LLM，必要时生成摘要。
func (s *chatService) Ask(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	// 1. 校验
	if strings.TrimSpace(req.Question) == "" {
		return nil, invalid("question must not be empty")
	}

	// 2. 并发读取提示词和历史，两者之间没有顺序要求
	var (
		systemPrompt = req.Prompt
		history      []model.ChatMessage
	)
	g, gctx := errgroup.WithContext(ctx)
	if systemPrompt == "" {
		g.Go(func() error {
			p, err := s.promptRepo.FetchLatestPrompt(gctx, req.UserID, req.SessionID)
			if err != nil {
				return err
			}
			systemPrompt = p
			return nil
		})
	}
	g.Go(func() error {
		h, err := s.chatRepo.FetchRecentTurns(gctx, req.UserID, req.SessionID, s.historyLimit)
		if err != nil {
			return err
		}
		history = h
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Errorw("读取对话上下文失败", "userId", req.UserID, "sessionId", req.SessionID, "error", err)
		return nil, classify(ErrDatabase, err)
	}

	// 3. 组装上下文
	messages := BuildContext(systemPrompt, history, req.Question)

	// 4. 推理
	answer, err := s.llmClient.Complete(ctx, toLLMMessages(messages), nil)
	if err != nil {
		log.Errorw("LLM 推理失败", "userId", req.UserID, "sessionId", req.SessionID, "error", err)
		return nil, classify(ErrInference, err)
	}

	result := &ChatResult{Answer: answer}

	// 5. 摘要，失败不影响主回答
	if s.summary.ShouldSummarize(len(messages)) {
		result.Summary = s.summarize(ctx, req, answer)
	}

	s.record(ctx, req, answer)
	return result, nil
}

func (s *chatService) summarize(ctx context.Context, req ChatRequest, answer string) *string {
	msgs := []llm.Message{
		{Role: string(model.RoleSystem), Content: s.summary.Instruction},
		{Role: string(model.RoleUser), Content: fmt.Sprintf("问题：%s\n回答：%s", req.Question, answer)},
	}
	summary, err := s.llmClient.Complete(ctx, msgs, nil)
	if err != nil {
		log.Warnw("生成摘要失败", "userId", req.UserID, "sessionId", req.SessionID, "error", err)
		return nil
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return nil
	}

	if s.sessionRepo != nil {
		if _, err := s.sessionRepo.SetTitleIfEmpty(ctx, req.UserID, req.SessionID, summary); err != nil {
			log.Warnw("回写会话标题失败", "sessionId", req.SessionID, "error", err)
		}
	}
	return &summary
}

// record 在回答成功后记录本轮问答，失败只记日志。
func (s *chatService) record(ctx context.Context, req ChatRequest, answer string) {
	if s.recorder == nil {
		return
	}
	// 即使客户端已断开，也要保存已生成的回答
	task := tasks.TurnRecordTask{
		UserID:     req.UserID,
		SessionID:  req.SessionID,
		Question:   req.Question,
		Answer:     answer,
		AnsweredAt: time.Now(),
	}
	if err := s.recorder.Record(context.WithoutCancel(ctx), task); err != nil {
		log.Errorw("记录问答失败", "userId", req.UserID, "sessionId", req.SessionID, "error", err)
	}
}

// AddPrompt 为会话追加一条系统提示词。
func (s *chatService) AddPrompt(ctx context.Context, userID, sessionID int64, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return invalid("prompt must not be empty")
	}
	if err := s.promptRepo.AppendPrompt(ctx, userID, sessionID, prompt); err != nil {
		log.Errorw("保存提示词失败", "userId", userID, "sessionId", sessionID, "error", err)
		return classify(ErrDatabase, err)
	}
	return nil
}

func toLLMMessages(messages []model.ChatMessage) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}
