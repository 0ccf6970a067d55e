package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"aichat-go/pkg/log"
	"aichat-go/pkg/storage"
	"aichat-go/pkg/tts"
)

// SpeechResult 是一次语音合成的结果。
type SpeechResult struct {
	URL   string `json:"url"`
	Seed  int64  `json:"seed"`
	Voice string `json:"voice"`
}

// TTSService 把文本合成为语音并上传到对象存储。
type TTSService interface {
	Synthesize(ctx context.Context, text, voice string, seed int64) (*SpeechResult, error)
	Voices() []string
}

type ttsService struct {
	client tts.Client
	store  storage.ObjectStore
}

// NewTTSService 创建一个新的 TTSService。
func NewTTSService(client tts.Client, store storage.ObjectStore) TTSService {
	return &ttsService{client: client, store: store}
}

// Synthesize 合成整段音频，保存为 tts/<uuid>.wav 并返回临时下载地址。seed 为 -1 时随机。
func (s *ttsService) Synthesize(ctx context.Context, text, voice string, seed int64) (*SpeechResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, invalid("text must not be empty")
	}

	res, err := s.client.Synthesize(ctx, tts.Request{Text: text, Voice: voice, Seed: seed})
	if err != nil {
		if errors.Is(err, tts.ErrUnknownVoice) {
			return nil, classify(ErrInvalidArgument, err)
		}
		log.Errorw("语音合成失败", "voice", voice, "error", err)
		return nil, classify(ErrSpeech, err)
	}

	objectName := "tts/" + uuid.NewString() + ".wav"
	if err := s.store.Put(ctx, objectName, "audio/wav", res.Audio); err != nil {
		return nil, classify(ErrSpeech, err)
	}
	url, err := s.store.PresignedURL(ctx, objectName)
	if err != nil {
		return nil, classify(ErrSpeech, err)
	}
	log.Infow("语音合成完成", "voice", res.Voice, "seed", res.Seed, "object", objectName, "bytes", len(res.Audio))
	return &SpeechResult{URL: url, Seed: res.Seed, Voice: res.Voice}, nil
}

func (s *ttsService) Voices() []string {
	return s.client.Voices()
}
