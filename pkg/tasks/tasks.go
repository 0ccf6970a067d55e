// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

import (
	"fmt"
	"time"
)

// TurnRecordTask carries one question/answer exchange to be appended to the chat table.
type TurnRecordTask struct {
	UserID     int64     `json:"user_id"`
	SessionID  int64     `json:"session_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	AnsweredAt time.Time `json:"answered_at"`
}

// Key 返回消息的分区键，同一会话的记录落在同一分区以保持顺序。
func (t TurnRecordTask) Key() string {
	return fmt.Sprintf("%d:%d", t.UserID, t.SessionID)
}
