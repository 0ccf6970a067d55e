package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"aichat-go/pkg/log"
)

func TestRequestLoggerKeepsBodyReadable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.POST("/echo", func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(b))
	})

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"question":"hi"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Body.String() != `{"question":"hi"}` {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestBodyLogWriterCapsCapturedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	w := bodyLogWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}

	payload := strings.Repeat("x", maxLoggedBody+100)
	if _, err := w.Write([]byte(payload)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if w.body.Len() != maxLoggedBody {
		t.Fatalf("captured = %d, want %d", w.body.Len(), maxLoggedBody)
	}
	if rec.Body.Len() != len(payload) {
		t.Fatalf("client got %d bytes, want %d", rec.Body.Len(), len(payload))
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate([]byte("short")); got != "short" {
		t.Fatalf("truncate(short) = %q", got)
	}
	long := bytes.Repeat([]byte("a"), maxLoggedBody+1)
	if got := truncate(long); !strings.HasSuffix(got, "...(truncated)") {
		t.Fatalf("long body not truncated")
	}
}

func TestRequestLoggerRedactsCredentials(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	t.Cleanup(log.Replace(zap.New(core)))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.POST("/user/login", func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		if !strings.Contains(string(b), "hunter2") {
			t.Errorf("handler did not receive the body: %q", b)
		}
		c.JSON(http.StatusOK, gin.H{"token": "jwt-secret-token"})
	})
	r.POST("/chatbyqwen3", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"answer": "你好"})
	})

	for _, path := range []string{"/user/login", "/chatbyqwen3"} {
		body := `{"name":"alice","password":"hunter2"}`
		if path == "/chatbyqwen3" {
			body = `{"question":"hi"}`
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
	}

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("log entries = %d, want 2", len(entries))
	}
	for _, e := range entries {
		fields := e.ContextMap()
		req, _ := fields["requestBody"].(string)
		resp, _ := fields["responseBody"].(string)
		switch fields["path"] {
		case "/user/login":
			if strings.Contains(req, "hunter2") || strings.Contains(resp, "jwt-secret-token") {
				t.Fatalf("credentials logged: request=%q response=%q", req, resp)
			}
		case "/chatbyqwen3":
			if !strings.Contains(req, "hi") || !strings.Contains(resp, "你好") {
				t.Fatalf("chat bodies missing: request=%q response=%q", req, resp)
			}
		default:
			t.Fatalf("unexpected path %v", fields["path"])
		}
	}
}

func TestCarriesCredentials(t *testing.T) {
	cases := map[string]bool{
		"/user/login":        true,
		"/user/register":     true,
		"/auth/refreshToken": true,
		"/chatbyqwen3":       false,
		"/session/add":       false,
		"/users":             false,
	}
	for path, want := range cases {
		if got := carriesCredentials(path); got != want {
			t.Errorf("carriesCredentials(%q) = %v, want %v", path, got, want)
		}
	}
}
