package handler

import (
	"github.com/gin-gonic/gin"

	"aichat-go/internal/model"
	"aichat-go/internal/service"
	"aichat-go/pkg/log"
)

// HistoryHandler 处理对话记录的查询、追加与删除。
type HistoryHandler struct {
	service service.HistoryService
}

// NewHistoryHandler 创建一个新的 HistoryHandler。
func NewHistoryHandler(service service.HistoryService) *HistoryHandler {
	return &HistoryHandler{service: service}
}

type sessionTurnsQuery struct {
	UserID    *int64 `form:"userId" binding:"required"`
	SessionID *int64 `form:"sessionId" binding:"required"`
}

// GetChats 返回一个会话的全部消息。
func (h *HistoryHandler) GetChats(c *gin.Context) {
	var q sessionTurnsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "userId 和 sessionId 不能为空")
		return
	}
	turns, err := h.service.ListTurns(c.Request.Context(), *q.UserID, *q.SessionID)
	if err != nil {
		abortEnvelope(c, err)
		return
	}
	respondOK(c, "success", turns)
}

// AddChatRequest 定义了追加一条消息的请求体。
type AddChatRequest struct {
	UserID    *int64 `json:"userId" binding:"required"`
	SessionID *int64 `json:"sessionId" binding:"required"`
	Role      string `json:"role" binding:"required"`
	Content   string `json:"content" binding:"required"`
}

// AddChat 追加一条消息。
func (h *HistoryHandler) AddChat(c *gin.Context) {
	var req AddChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("AddChat: invalid request payload, error: %v", err)
		badRequest(c, "无效的请求负载")
		return
	}
	turn := &model.Chat{
		UserID:    *req.UserID,
		SessionID: *req.SessionID,
		Role:      model.Role(req.Role),
		Content:   req.Content,
	}
	if err := h.service.AddTurn(c.Request.Context(), turn); err != nil {
		abortEnvelope(c, err)
		return
	}
	respondOK(c, "success", nil)
}

type deleteChatQuery struct {
	SessionID *int64 `form:"sessionId" binding:"required"`
}

// DeleteChat 删除一个会话下的全部消息。
func (h *HistoryHandler) DeleteChat(c *gin.Context) {
	var q deleteChatQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "sessionId 不能为空")
		return
	}
	if err := h.service.DeleteSessionTurns(c.Request.Context(), *q.SessionID); err != nil {
		abortEnvelope(c, err)
		return
	}
	respondOK(c, "success", nil)
}
