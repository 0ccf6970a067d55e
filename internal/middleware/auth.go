// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"aichat-go/internal/repository"
	"aichat-go/pkg/log"
	"aichat-go/pkg/token"
)

// AuthMiddleware 创建一个 Gin 中间件，用于 JWT 认证。
// 它会从请求头中提取 access token，验证后把 claims 和用户 ID 存入 Gin 的上下文中。
// blacklist 为 nil 时不检查注销状态。
func AuthMiddleware(jwtManager *token.JWTManager, blacklist repository.TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "请求未包含授权头"})
			return
		}

		// Token 以 "Bearer <token>" 的形式提供
		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的授权头格式"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)

		claims, err := jwtManager.VerifyToken(tokenString, token.TypeAccess)
		if err != nil {
			// access 过期但 refresh 仍有效时提示前端走 /auth/refreshToken
			if refresh := c.GetHeader("X-Refresh-Token"); refresh != "" {
				if rclaims, rerr := jwtManager.VerifyToken(refresh, token.TypeRefresh); rerr == nil && time.Until(rclaims.ExpiresAt.Time) > 0 {
					log.Infof("检测到过期 access，存在仍有效的 refresh，可引导刷新, userId=%d", rclaims.UserID)
				}
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效或已过期的 token"})
			return
		}

		if blacklist != nil {
			revoked, err := blacklist.Contains(c.Request.Context(), tokenString)
			if err != nil {
				log.Errorf("查询 token 黑名单失败: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "认证服务不可用"})
				return
			}
			if revoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "token 已注销"})
				return
			}
		}

		c.Set("claims", claims)
		c.Set("userId", claims.UserID)
		c.Next()
	}
}
