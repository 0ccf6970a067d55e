package handler

import (
	"github.com/gin-gonic/gin"

	"aichat-go/internal/service"
	"aichat-go/pkg/log"
)

// TTSHandler 处理语音合成接口。
type TTSHandler struct {
	service service.TTSService
}

// NewTTSHandler 创建一个新的 TTSHandler。
func NewTTSHandler(service service.TTSService) *TTSHandler {
	return &TTSHandler{service: service}
}

// SynthesizeRequest 定义了 /tts 的请求体。seed 缺省或为 -1 时随机。
type SynthesizeRequest struct {
	Text  string `json:"text" binding:"required"`
	Voice string `json:"voice"`
	Seed  *int64 `json:"seed"`
}

// Synthesize 合成语音并返回音频下载地址。
func (h *TTSHandler) Synthesize(c *gin.Context) {
	var req SynthesizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Synthesize: invalid request payload, error: %v", err)
		badRequest(c, "text 不能为空")
		return
	}
	seed := int64(-1)
	if req.Seed != nil {
		seed = *req.Seed
	}

	res, err := h.service.Synthesize(c.Request.Context(), req.Text, req.Voice, seed)
	if err != nil {
		abortEnvelope(c, err)
		return
	}
	respondOK(c, "success", res)
}

// Voices 列出可用音色。
func (h *TTSHandler) Voices(c *gin.Context) {
	respondOK(c, "success", h.service.Voices())
}
