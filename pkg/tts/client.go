// Package tts 是 GPT-SoVITS 推理服务（api_v2）的 HTTP 客户端。
// 模型权重与推理管线留在外部服务中，这里只负责切换音色与提交合成请求。
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"aichat-go/internal/config"
	"aichat-go/pkg/log"
)

// ErrUnknownVoice 表示请求了未注册的音色。
var ErrUnknownVoice = errors.New("voice not registered")

// Request 是一次合成请求。Seed 为 -1 时随机取种子。
type Request struct {
	Text  string
	Voice string
	Seed  int64
}

// Result 是合成得到的音频与实际使用的种子。
type Result struct {
	Audio []byte
	Seed  int64
	Voice string
}

// Client 定义语音合成接口。
type Client interface {
	Synthesize(ctx context.Context, req Request) (*Result, error)
	Voices() []string
}

// inferenceInput 与 GPT-SoVITS 推理管线的输入字段一一对应。
type inferenceInput struct {
	Text              string   `json:"text"`
	TextLang          string   `json:"text_lang"`
	RefAudioPath      string   `json:"ref_audio_path"`
	AuxRefAudioPaths  []string `json:"aux_ref_audio_paths"`
	PromptText        string   `json:"prompt_text"`
	PromptLang        string   `json:"prompt_lang"`
	TopK              int      `json:"top_k"`
	TopP              float64  `json:"top_p"`
	Temperature       float64  `json:"temperature"`
	TextSplitMethod   string   `json:"text_split_method"`
	BatchSize         int      `json:"batch_size"`
	SpeedFactor       float64  `json:"speed_factor"`
	SplitBucket       bool     `json:"split_bucket"`
	ReturnFragment    bool     `json:"return_fragment"`
	FragmentInterval  float64  `json:"fragment_interval"`
	Seed              int64    `json:"seed"`
	MediaType         string   `json:"media_type"`
	StreamingMode     bool     `json:"streaming_mode"`
	ParallelInfer     bool     `json:"parallel_infer"`
	RepetitionPenalty float64  `json:"repetition_penalty"`
	SampleSteps       int      `json:"sample_steps"`
	SuperSampling     bool     `json:"super_sampling"`
}

func defaultInput(text string, voice config.VoiceConfig, seed int64) inferenceInput {
	return inferenceInput{
		Text:              text,
		TextLang:          "all_zh",
		RefAudioPath:      voice.RefAudioPath,
		AuxRefAudioPaths:  []string{},
		PromptText:        voice.PromptText,
		PromptLang:        "all_zh",
		TopK:              5,
		TopP:              1.0,
		Temperature:       1.0,
		TextSplitMethod:   "cut1",
		BatchSize:         20,
		SpeedFactor:       1.0,
		SplitBucket:       true,
		ReturnFragment:    false,
		FragmentInterval:  0.3,
		Seed:              seed,
		MediaType:         "wav",
		StreamingMode:     false,
		ParallelInfer:     true,
		RepetitionPenalty: 1.35,
		SampleSteps:       32,
		SuperSampling:     true,
	}
}

type sovitsClient struct {
	baseURL      string
	http         *http.Client
	voices       map[string]config.VoiceConfig
	names        []string
	defaultVoice string

	// 远端模型是进程级的全局状态，切换权重与合成必须串行。
	mu      sync.Mutex
	current string
}

// NewClient 根据配置注册所有音色。
func NewClient(cfg config.TTSConfig) Client {
	c := &sovitsClient{
		baseURL:      strings.TrimRight(cfg.ServerURL, "/"),
		http:         &http.Client{Timeout: cfg.Timeout},
		voices:       make(map[string]config.VoiceConfig, len(cfg.Voices)),
		defaultVoice: cfg.DefaultVoice,
	}
	for _, v := range cfg.Voices {
		c.voices[v.Name] = v
		c.names = append(c.names, v.Name)
		log.Infof("【音色注册成功】→ %s", v.Name)
	}
	if c.defaultVoice == "" && len(c.names) > 0 {
		c.defaultVoice = c.names[0]
	}
	return c
}

// Voices 返回已注册的音色名称，按配置顺序。
func (c *sovitsClient) Voices() []string {
	return append([]string(nil), c.names...)
}

// Synthesize 必要时切换音色权重，然后合成整段音频。
func (c *sovitsClient) Synthesize(ctx context.Context, req Request) (*Result, error) {
	name := req.Voice
	if name == "" {
		name = c.defaultVoice
	}
	voice, ok := c.voices[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVoice, name)
	}

	seed := req.Seed
	if seed == -1 {
		seed = int64(rand.Uint32())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != name {
		// 切换到一半失败时远端权重处于未知状态，下次必须整体重载
		c.current = ""
		if err := c.switchWeights(ctx, voice); err != nil {
			return nil, err
		}
		c.current = name
		log.Infof("【切换音色】→ %s", name)
	}

	body, err := json.Marshal(defaultInput(req.Text, voice, seed))
	if err != nil {
		return nil, fmt.Errorf("marshal tts request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tts", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create tts request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call tts api: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tts response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts api returned %s: %s", resp.Status, string(audio))
	}
	if len(audio) == 0 {
		return nil, errors.New("tts api returned empty audio")
	}
	return &Result{Audio: audio, Seed: seed, Voice: name}, nil
}

func (c *sovitsClient) switchWeights(ctx context.Context, voice config.VoiceConfig) error {
	if err := c.get(ctx, "/set_gpt_weights", voice.GPTWeights); err != nil {
		return fmt.Errorf("切换 GPT 权重失败: %w", err)
	}
	if err := c.get(ctx, "/set_sovits_weights", voice.SoVITSWeights); err != nil {
		return fmt.Errorf("切换 SoVITS 权重失败: %w", err)
	}
	return nil
}

func (c *sovitsClient) get(ctx context.Context, path, weightsPath string) error {
	u := c.baseURL + path + "?weights_path=" + url.QueryEscape(weightsPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s returned %s: %s", path, resp.Status, string(msg))
	}
	return nil
}
