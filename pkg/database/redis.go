package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"aichat-go/internal/config"
	"aichat-go/pkg/log"
)

// NewRedis 创建 Redis 客户端并测试连接。cfg.Addr 为空时返回 nil, nil。
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		log.Info("Redis 未配置，提示词缓存已关闭")
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Redis client connected successfully")
	return rdb, nil
}
