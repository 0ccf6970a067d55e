package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"aichat-go/internal/model"
	"aichat-go/internal/service"
	"aichat-go/pkg/tasks"
)

type fakeChatService struct {
	got     service.ChatRequest
	result  *service.ChatResult
	err     error
	prompts []string
}

func (f *fakeChatService) Ask(_ context.Context, req service.ChatRequest) (*service.ChatResult, error) {
	f.got = req
	return f.result, f.err
}

func (f *fakeChatService) AddPrompt(_ context.Context, _, _ int64, prompt string) error {
	if f.err != nil {
		return f.err
	}
	f.prompts = append(f.prompts, prompt)
	return nil
}

func newChatRouter(svc service.ChatService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewChatHandler(svc)
	r := gin.New()
	r.POST("/chatbyqwen3", h.ChatByQwen3)
	r.GET("/addpropmt", h.AddPrompt)
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestChatByQwen3ReturnsAnswerAndSummary(t *testing.T) {
	summary := "打招呼"
	svc := &fakeChatService{result: &service.ChatResult{Answer: "你好！", Summary: &summary}}
	rec := do(newChatRouter(svc), http.MethodPost, "/chatbyqwen3", `{"userId":0,"sessionId":2,"question":"hello","prompt":"p"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["answer"] != "你好！" || resp["summary"] != "打招呼" {
		t.Fatalf("resp = %v", resp)
	}
	if svc.got.UserID != 0 || svc.got.SessionID != 2 || svc.got.Question != "hello" || svc.got.Prompt != "p" {
		t.Fatalf("request = %+v", svc.got)
	}
}

func TestChatByQwen3NullSummary(t *testing.T) {
	svc := &fakeChatService{result: &service.ChatResult{Answer: "a"}}
	rec := do(newChatRouter(svc), http.MethodPost, "/chatbyqwen3", `{"userId":1,"sessionId":1,"question":"q"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"summary":null`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestChatByQwen3Errors(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{"missing user", `{"sessionId":1,"question":"q"}`, nil, http.StatusBadRequest, "Invalid request"},
		{"malformed json", `{"userId":`, nil, http.StatusBadRequest, "Invalid request"},
		{"database", `{"userId":1,"sessionId":1,"question":"q"}`, fmt.Errorf("%w: %w", service.ErrDatabase, errors.New("connection refused")), http.StatusInternalServerError, "Database error: connection refused"},
		{"inference", `{"userId":1,"sessionId":1,"question":"q"}`, fmt.Errorf("%w: %w", service.ErrInference, errors.New("bad json")), http.StatusInternalServerError, "Error generating answer"},
		{"invalid", `{"userId":1,"sessionId":1,"question":"q"}`, fmt.Errorf("%w: question must not be empty", service.ErrInvalidArgument), http.StatusBadRequest, "question must not be empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(newChatRouter(&fakeChatService{err: tc.err}), http.MethodPost, "/chatbyqwen3", tc.body)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !strings.Contains(resp["detail"], tc.wantDetail) {
				t.Fatalf("detail = %q, want it to contain %q", resp["detail"], tc.wantDetail)
			}
			if _, ok := resp["answer"]; ok {
				t.Fatal("partial answer returned on error")
			}
		})
	}
}

func TestAddPrompt(t *testing.T) {
	svc := &fakeChatService{}
	r := newChatRouter(svc)

	rec := do(r, http.MethodGet, "/addpropmt?user_id=1&session_id=2&prompt=%E4%BD%A0%E6%98%AF%E7%BF%BB%E8%AF%91", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != `{"message":"Prompt added successfully"}` {
		t.Fatalf("body = %s", rec.Body.String())
	}
	if len(svc.prompts) != 1 || svc.prompts[0] != "你是翻译" {
		t.Fatalf("prompts = %v", svc.prompts)
	}

	rec = do(r, http.MethodGet, "/addpropmt?user_id=1&prompt=x", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing session_id status = %d", rec.Code)
	}

	svc.err = fmt.Errorf("%w: %w", service.ErrDatabase, errors.New("db down"))
	rec = do(r, http.MethodGet, "/addpropmt?user_id=1&session_id=2&prompt=x", "")
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "Database error") {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

type fakeHistoryService struct {
	turns   []model.Chat
	err     error
	deleted []int64
}

func (f *fakeHistoryService) ListTurns(_ context.Context, _, _ int64) ([]model.Chat, error) {
	return f.turns, f.err
}

func (f *fakeHistoryService) AddTurn(_ context.Context, turn *model.Chat) error {
	if !turn.Role.Valid() {
		return fmt.Errorf("%w: bad role", service.ErrInvalidArgument)
	}
	f.turns = append(f.turns, *turn)
	return f.err
}

func (f *fakeHistoryService) DeleteSessionTurns(_ context.Context, sessionID int64) error {
	f.deleted = append(f.deleted, sessionID)
	return f.err
}

func (f *fakeHistoryService) Process(context.Context, tasks.TurnRecordTask) error { return nil }

func TestHistoryHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeHistoryService{}
	h := NewHistoryHandler(svc)
	r := gin.New()
	r.GET("/chat/getChats", h.GetChats)
	r.POST("/chat/addChat", h.AddChat)
	r.DELETE("/chat/deleteChat", h.DeleteChat)

	rec := do(r, http.MethodPost, "/chat/addChat", `{"userId":1,"sessionId":2,"role":"user","content":"hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("addChat status = %d, body = %s", rec.Code, rec.Body.String())
	}
	rec = do(r, http.MethodPost, "/chat/addChat", `{"userId":1,"sessionId":2,"role":"robot","content":"hi"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad role status = %d", rec.Code)
	}

	rec = do(r, http.MethodGet, "/chat/getChats?userId=1&sessionId=2", "")
	var resp struct {
		Code int          `json:"code"`
		Data []model.Chat `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != http.StatusOK || len(resp.Data) != 1 || resp.Data[0].Content != "hi" {
		t.Fatalf("resp = %+v", resp)
	}

	rec = do(r, http.MethodDelete, "/chat/deleteChat?sessionId=2", "")
	if rec.Code != http.StatusOK || len(svc.deleted) != 1 || svc.deleted[0] != 2 {
		t.Fatalf("deleteChat status = %d, deleted = %v", rec.Code, svc.deleted)
	}

	svc.err = fmt.Errorf("%w: gone", service.ErrNotFound)
	rec = do(r, http.MethodDelete, "/chat/deleteChat?sessionId=2", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("not found status = %d", rec.Code)
	}
}

func TestStatusOf(t *testing.T) {
	cases := map[error]int{
		service.ErrInvalidArgument: http.StatusBadRequest,
		service.ErrUnauthorized:    http.StatusUnauthorized,
		service.ErrNotFound:        http.StatusNotFound,
		service.ErrConflict:        http.StatusConflict,
		service.ErrDatabase:        http.StatusInternalServerError,
		service.ErrInference:       http.StatusInternalServerError,
		service.ErrSpeech:          http.StatusInternalServerError,
		errors.New("other"):        http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := statusOf(fmt.Errorf("wrapped: %w", err)); got != want {
			t.Errorf("statusOf(%v) = %d, want %d", err, got, want)
		}
	}
}
