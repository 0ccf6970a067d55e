package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"aichat-go/pkg/token"
)

type memBlacklist map[string]bool

func (b memBlacklist) Add(_ context.Context, tok string, _ time.Duration) error {
	b[tok] = true
	return nil
}

func (b memBlacklist) Contains(_ context.Context, tok string) (bool, error) {
	return b[tok], nil
}

func newProtectedRouter(m *token.JWTManager, bl memBlacklist) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthMiddleware(m, bl), func(c *gin.Context) {
		id, _ := c.Get("userId")
		if id != int64(7) {
			c.Status(http.StatusTeapot)
			return
		}
		c.Status(http.StatusOK)
	})
	return r
}

func get(r http.Handler, authHeader string) int {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestAuthMiddleware(t *testing.T) {
	m := token.NewJWTManager("secret", 1, 1)
	access, refresh, err := m.GeneratePair(7, "alice")
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}
	bl := memBlacklist{}
	r := newProtectedRouter(m, bl)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid access token", "Bearer " + access, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + access, http.StatusUnauthorized},
		{"refresh token used as access", "Bearer " + refresh, http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := get(r, tc.header); got != tc.want {
				t.Fatalf("status = %d, want %d", got, tc.want)
			}
		})
	}

	bl[access] = true
	if got := get(r, "Bearer "+access); got != http.StatusUnauthorized {
		t.Fatalf("revoked token status = %d", got)
	}
}
