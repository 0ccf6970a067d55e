// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"

	"aichat-go/internal/config"
	"aichat-go/pkg/log"
	"aichat-go/pkg/tasks"
)

// TaskProcessor defines the interface for any service that can process a task.
// This decouples the Kafka consumer from the concrete persistence implementation.
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.TurnRecordTask) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer 把对话记录任务发送到 Kafka。
type Producer struct {
	writer messageWriter
}

// NewProducer 初始化 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers(cfg)...),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{},
	}
	log.Info("Kafka 生产者初始化成功")
	return &Producer{writer: w}
}

// Publish 发送一个对话记录任务。同一会话使用相同的 key。
func (p *Producer) Publish(ctx context.Context, task tasks.TurnRecordTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal turn task: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(task.Key()),
		Value: taskBytes,
	}); err != nil {
		return fmt.Errorf("write turn task: %w", err)
	}
	return nil
}

// Close 刷新并关闭生产者。
func (p *Producer) Close() error {
	return p.writer.Close()
}

// StartConsumer 启动一个 Kafka 消费者来处理对话记录任务，直到 ctx 结束。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor TaskProcessor) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers(cfg),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)
	consume(ctx, r, processor)
}

func consume(ctx context.Context, r messageReader, processor TaskProcessor) {
	defer func() {
		if err := r.Close(); err != nil {
			log.Errorf("关闭 Kafka 消费者失败: %v", err)
		}
	}()

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.Info("Kafka 消费者已停止")
				return
			}
			log.Error("从 Kafka 读取消息失败", err)
			return
		}

		var task tasks.TurnRecordTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			// 消息格式错误，直接提交，避免阻塞队列
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
		} else if err := processor.Process(ctx, task); err != nil {
			// 记录失败不重试，只留下日志
			log.Errorw("处理对话记录任务失败",
				"userId", task.UserID,
				"sessionId", task.SessionID,
				"offset", m.Offset,
				"error", err,
			)
		}

		if err := r.CommitMessages(ctx, m); err != nil {
			log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
		}
	}
}

func brokers(cfg config.KafkaConfig) []string {
	var out []string
	for _, b := range strings.Split(cfg.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
