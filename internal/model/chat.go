// Package model 定义了与数据库表对应的 Go 结构体。
package model

// DefaultHistoryLimit 是组装上下文时读取的历史轮次上限。
const DefaultHistoryLimit = 10

// DefaultPrompt 是会话没有保存过系统提示词时使用的兜底提示词。
const DefaultPrompt = "你是个智能助手"

// Role 表示一条对话消息的角色。
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid 判断角色是否为 system/user/assistant 之一。
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Chat 对应 chat 表，记录一个会话中的单条消息（轮次）。
// 只追加，插入后不再修改。
type Chat struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64  `gorm:"not null;index:idx_chat_user_session" json:"userId"`
	SessionID int64  `gorm:"not null;index:idx_chat_user_session" json:"sessionId"`
	Role      Role   `gorm:"type:varchar(16);not null" json:"role"`
	Content   string `gorm:"type:text;not null" json:"content"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Chat) TableName() string {
	return "chat"
}

// Prompt 对应 prompt 表。同一会话可累积多条，最新插入的一条生效。
type Prompt struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64  `gorm:"not null;index:idx_prompt_user_session" json:"userId"`
	SessionID int64  `gorm:"not null;index:idx_prompt_user_session" json:"sessionId"`
	Text      string `gorm:"column:prompt;type:text;not null" json:"prompt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Prompt) TableName() string {
	return "prompt"
}

// ChatMessage 是发送给 LLM 的一条角色消息，只在单次请求内存在，不落库。
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
