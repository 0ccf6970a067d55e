package service

import "aichat-go/internal/model"

// BuildContext 组装一次推理的消息列表：[system] + history + [user]。
// system 总在第一位，新问题总在最后；systemPrompt 为空时使用兜底提示词。
func BuildContext(systemPrompt string, history []model.ChatMessage, question string) []model.ChatMessage {
	if systemPrompt == "" {
		systemPrompt = model.DefaultPrompt
	}
	msgs := make([]model.ChatMessage, 0, len(history)+2)
	msgs = append(msgs, model.ChatMessage{Role: model.RoleSystem, Content: systemPrompt})
	msgs = append(msgs, history...)
	msgs = append(msgs, model.ChatMessage{Role: model.RoleUser, Content: question})
	return msgs
}
