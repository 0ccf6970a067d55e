package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"aichat-go/internal/service"
	"aichat-go/pkg/log"
)

// ChatHandler 处理问答与提示词接口。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRequest 定义了 /chatbyqwen3 的请求体。
type ChatRequest struct {
	UserID    *int64 `json:"userId" binding:"required"`
	SessionID *int64 `json:"sessionId" binding:"required"`
	Question  string `json:"question" binding:"required"`
	Prompt    string `json:"prompt"`
}

// ChatResponse 定义了 /chatbyqwen3 的响应体。没有摘要时 summary 为 null。
type ChatResponse struct {
	Answer  string  `json:"answer"`
	Summary *string `json:"summary"`
}

// ChatByQwen3 处理一次问答请求。
func (h *ChatHandler) ChatByQwen3(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("ChatByQwen3: invalid request payload, error: %v", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("Invalid request: %v", err)})
		return
	}

	res, err := h.chatService.Ask(c.Request.Context(), service.ChatRequest{
		UserID:    *req.UserID,
		SessionID: *req.SessionID,
		Question:  req.Question,
		Prompt:    req.Prompt,
	})
	if err != nil {
		abortDetail(c, err)
		return
	}
	c.JSON(http.StatusOK, ChatResponse{Answer: res.Answer, Summary: res.Summary})
}

// AddPromptQuery 定义了 /addpropmt 的查询参数。
type AddPromptQuery struct {
	UserID    *int64 `form:"user_id" binding:"required"`
	SessionID *int64 `form:"session_id" binding:"required"`
	Prompt    string `form:"prompt" binding:"required"`
}

// AddPrompt 为会话追加一条系统提示词。
func (h *ChatHandler) AddPrompt(c *gin.Context) {
	var q AddPromptQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		log.Warnf("AddPrompt: invalid query, error: %v", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("Invalid request: %v", err)})
		return
	}

	if err := h.chatService.AddPrompt(c.Request.Context(), *q.UserID, *q.SessionID, q.Prompt); err != nil {
		abortDetail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Prompt added successfully"})
}
