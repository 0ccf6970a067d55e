// Package token 提供了用于生成和验证 JSON Web Tokens (JWT) 的功能。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TypeAccess 标记访问令牌。
	TypeAccess = "access"
	// TypeRefresh 标记刷新令牌。
	TypeRefresh = "refresh"
)

// ErrTokenType 表示令牌类型与期望不符，例如用刷新令牌访问接口。
var ErrTokenType = errors.New("unexpected token type")

// JWTManager 负责管理 JWT 的生成和验证。
type JWTManager struct {
	secretKey       []byte
	accessTokenDur  time.Duration
	refreshTokenDur time.Duration
}

// CustomClaims 定义了我们想要在 JWT 中存储的自定义数据。
type CustomClaims struct {
	UserID    int64  `json:"userId"`
	Name      string `json:"name"`
	TokenType string `json:"tokenType"`
	jwt.RegisteredClaims
}

// NewJWTManager 创建一个新的 JWTManager 实例。
func NewJWTManager(secret string, accessTokenExpireHours, refreshTokenExpireDays int) *JWTManager {
	return &JWTManager{
		secretKey:       []byte(secret),
		accessTokenDur:  time.Hour * time.Duration(accessTokenExpireHours),
		refreshTokenDur: time.Duration(refreshTokenExpireDays) * 24 * time.Hour,
	}
}

// GeneratePair 为用户签发一对 access/refresh token。
func (m *JWTManager) GeneratePair(userID int64, name string) (accessToken, refreshToken string, err error) {
	accessToken, err = m.sign(userID, name, TypeAccess, m.accessTokenDur)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = m.sign(userID, name, TypeRefresh, m.refreshTokenDur)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (m *JWTManager) sign(userID int64, name, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		UserID:    userID,
		Name:      name,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
}

// VerifyToken 验证 token 的签名、有效期与类型。
func (m *JWTManager) VerifyToken(tokenString, wantType string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenType != wantType {
		return nil, ErrTokenType
	}
	return claims, nil
}
