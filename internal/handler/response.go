// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"aichat-go/internal/service"
)

// statusOf 把服务层错误分类映射为 HTTP 状态码。
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// abortDetail 以 {"detail": "..."} 的格式返回错误，用于问答与提示词接口。
func abortDetail(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusOf(err), gin.H{"detail": err.Error()})
}

// abortEnvelope 以 {"code","message"} 的格式返回错误，用于管理类接口。
func abortEnvelope(c *gin.Context, err error) {
	status := statusOf(err)
	c.AbortWithStatusJSON(status, gin.H{"code": status, "message": err.Error()})
}

func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": message, "data": data})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": message})
}

// currentUserID 读取 AuthMiddleware 注入的用户 ID。
func currentUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get("userId")
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
