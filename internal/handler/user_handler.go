package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"aichat-go/internal/service"
	"aichat-go/pkg/log"
)

// UserHandler 负责处理所有与用户相关的 API 请求。
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRequest 定义了用户注册 API 的请求体结构。
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
	Icon     string `json:"icon"`
}

// Register 处理用户注册请求。
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Register: Invalid request payload, error: %v", err)
		badRequest(c, "无效的请求负载：用户名和密码不能为空")
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Name, req.Password, req.Icon)
	if err != nil {
		log.Warnf("Register: User registration failed for '%s', error: %v", req.Name, err)
		abortEnvelope(c, err)
		return
	}

	log.Infof("User '%s' registered successfully", user.Name)
	respondOK(c, "User registered successfully", user)
}

// LoginRequest 定义了用户登录 API 的请求体结构。
type LoginRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 处理用户登录请求。
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Login: Invalid request payload, error: %v", err)
		badRequest(c, "无效的请求负载：用户名和密码不能为空")
		return
	}

	res, err := h.userService.Login(c.Request.Context(), req.Name, req.Password)
	if err != nil {
		log.Warnf("Login: User authentication failed for '%s', error: %v", req.Name, err)
		abortEnvelope(c, err)
		return
	}

	log.Infof("User '%s' logged in successfully", req.Name)
	respondOK(c, "Login successful", gin.H{
		"user":         res.User,
		"token":        res.AccessToken,
		"refreshToken": res.RefreshToken,
	})
}

// Refresh 用 refresh token 换一对新的 token。
func (h *UserHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "refreshToken 不能为空")
		return
	}

	access, refresh, err := h.userService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		log.Warnf("Refresh: %v", err)
		abortEnvelope(c, err)
		return
	}
	respondOK(c, "success", gin.H{"token": access, "refreshToken": refresh})
}

// Logout 注销当前的 access token。
func (h *UserHandler) Logout(c *gin.Context) {
	tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if err := h.userService.Logout(c.Request.Context(), tokenString); err != nil {
		log.Error("Logout: Failed to logout", err)
		abortEnvelope(c, err)
		return
	}
	respondOK(c, "登出成功", nil)
}

// UpdateUserRequest 定义了修改用户信息的请求体，缺省字段不修改。
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
	Icon     *string `json:"icon"`
}

// Update 修改当前登录用户的信息。
func (h *UserHandler) Update(c *gin.Context) {
	userID, exists := currentUserID(c)
	if !exists {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息"})
		return
	}
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}

	user, err := h.userService.Update(c.Request.Context(), userID, service.UpdateUserInput{
		Name:     req.Name,
		Password: req.Password,
		Icon:     req.Icon,
	})
	if err != nil {
		abortEnvelope(c, err)
		return
	}
	respondOK(c, "success", user)
}

type deleteUserQuery struct {
	ID *int64 `form:"id" binding:"required"`
}

// Delete 软删除当前登录用户。
func (h *UserHandler) Delete(c *gin.Context) {
	userID, exists := currentUserID(c)
	if !exists {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息"})
		return
	}
	var q deleteUserQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "id 不能为空")
		return
	}
	if err := h.userService.Delete(c.Request.Context(), userID, *q.ID); err != nil {
		abortEnvelope(c, err)
		return
	}
	respondOK(c, "success", nil)
}
