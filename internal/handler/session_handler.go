package handler

import (
	"github.com/gin-gonic/gin"

	"aichat-go/internal/service"
)

// SessionHandler 处理会话的增删查。
type SessionHandler struct {
	service service.SessionService
}

// NewSessionHandler 创建一个新的 SessionHandler。
func NewSessionHandler(service service.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

type userSessionsQuery struct {
	UserID *int64 `form:"userId" binding:"required"`
}

// GetSessions 返回用户的全部会话。
func (h *SessionHandler) GetSessions(c *gin.Context) {
	var q userSessionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "userId 不能为空")
		return
	}
	sessions, err := h.service.List(c.Request.Context(), *q.UserID)
	if err != nil {
		abortEnvelope(c, err)
		return
	}
	respondOK(c, "success", sessions)
}

// AddSessionRequest 定义了新建会话的请求体。
type AddSessionRequest struct {
	UserID *int64 `json:"userId" binding:"required"`
	Title  string `json:"title"`
}

// AddSession 新建一个会话并返回它。
func (h *SessionHandler) AddSession(c *gin.Context) {
	var req AddSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "userId 不能为空")
		return
	}
	session, err := h.service.Create(c.Request.Context(), *req.UserID, req.Title)
	if err != nil {
		abortEnvelope(c, err)
		return
	}
	respondOK(c, "success", session)
}

type deleteSessionQuery struct {
	ID *int64 `form:"id" binding:"required"`
}

// DeleteSession 删除会话及其消息和提示词。
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	var q deleteSessionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "id 不能为空")
		return
	}
	if err := h.service.Delete(c.Request.Context(), *q.ID); err != nil {
		abortEnvelope(c, err)
		return
	}
	respondOK(c, "success", nil)
}
