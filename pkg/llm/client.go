// Package llm provides a client for an OpenAI-compatible chat completion endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"aichat-go/internal/config"
	"aichat-go/pkg/log"
)

// ErrEmptyAnswer is returned when the endpoint answers 2xx without any choice.
var ErrEmptyAnswer = errors.New("llm response contains no choices")

// Client defines the interface for an LLM client.
type Client interface {
	// Complete 发送一组角色消息并返回第一条候选回答的文本。
	Complete(ctx context.Context, messages []Message, gen *GenerationParams) (string, error)
}

// Message 表示一条角色消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationParams 控制生成行为
type GenerationParams struct {
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type httpClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient creates a client for the configured endpoint. The whole call,
// including reading the body, is bounded by cfg.Timeout.
func NewClient(cfg config.LLMConfig) Client {
	return &httpClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// defaultGeneration 把配置中的非零解码参数转换为请求参数。
func (c *httpClient) defaultGeneration() *GenerationParams {
	var gp GenerationParams
	if c.cfg.Generation.Temperature != 0 {
		t := c.cfg.Generation.Temperature
		gp.Temperature = &t
	}
	if c.cfg.Generation.TopP != 0 {
		p := c.cfg.Generation.TopP
		gp.TopP = &p
	}
	if c.cfg.Generation.MaxTokens != 0 {
		m := c.cfg.Generation.MaxTokens
		gp.MaxTokens = &m
	}
	return &gp
}

// Complete calls the chat completion endpoint once. No retry is attempted.
func (c *httpClient) Complete(ctx context.Context, messages []Message, gen *GenerationParams) (string, error) {
	// 传参优先，否则使用配置中的固定解码参数
	if gen == nil {
		gen = c.defaultGeneration()
	}
	reqBody := chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: gen.Temperature,
		TopP:        gen.TopP,
		MaxTokens:   gen.MaxTokens,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	log.Infof("[LLMClient] 调用推理接口, model: %s, messages: %d", c.cfg.Model, len(messages))
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call chat api: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read chat response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("chat api returned non-2xx status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	var cr chatResponse
	if err := json.Unmarshal(bodyBytes, &cr); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", ErrEmptyAnswer
	}
	return cr.Choices[0].Message.Content, nil
}
