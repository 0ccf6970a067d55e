package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"aichat-go/internal/model"
	"aichat-go/pkg/database"
	"aichat-go/pkg/log"
)

// PromptCache 是提示词的旁路缓存。ok 为 false 表示未命中。
type PromptCache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type redisPromptCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisPromptCache 用 Redis 实现 PromptCache。rdb 为 nil 时返回 nil，表示不缓存。
func NewRedisPromptCache(rdb *redis.Client, ttl time.Duration) PromptCache {
	if rdb == nil {
		return nil
	}
	return &redisPromptCache{rdb: rdb, ttl: ttl}
}

func (c *redisPromptCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *redisPromptCache) Set(ctx context.Context, key, value string) error {
	return c.rdb.Set(ctx, key, value, c.ttl).Err()
}

func (c *redisPromptCache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// PromptRepository 定义了会话系统提示词（prompt 表）的持久化操作。
type PromptRepository interface {
	FetchLatestPrompt(ctx context.Context, userID, sessionID int64) (string, error)
	AppendPrompt(ctx context.Context, userID, sessionID int64, text string) error
	EvictSessionPrompts(ctx context.Context, sessionID int64, userIDs []int64) error
}

type promptRepository struct {
	db       *gorm.DB
	cache    PromptCache
	fallback string
}

// NewPromptRepository 创建 PromptRepository。cache 可以为 nil；fallback 为空时使用 model.DefaultPrompt。
func NewPromptRepository(db *gorm.DB, cache PromptCache, fallback string) PromptRepository {
	if fallback == "" {
		fallback = model.DefaultPrompt
	}
	return &promptRepository{db: db, cache: cache, fallback: fallback}
}

func promptKey(userID, sessionID int64) string {
	return fmt.Sprintf("prompt:%d:%d", userID, sessionID)
}

// FetchLatestPrompt 返回该会话最新插入的提示词，没有记录时返回兜底提示词。
// 缓存故障只记日志，回落到数据库。
func (r *promptRepository) FetchLatestPrompt(ctx context.Context, userID, sessionID int64) (string, error) {
	key := promptKey(userID, sessionID)
	if r.cache != nil {
		if val, ok, err := r.cache.Get(ctx, key); err != nil {
			log.Warnf("读取提示词缓存失败, key=%s: %v", key, err)
		} else if ok {
			return val, nil
		}
	}

	var row model.Prompt
	err := database.WithConn(ctx, r.db, func(conn *gorm.DB) error {
		return conn.Select("prompt").
			Where("user_id = ? AND session_id = ?", userID, sessionID).
			Order("id DESC").
			First(&row).Error
	})
	text := row.Text
	if errors.Is(err, gorm.ErrRecordNotFound) {
		text = r.fallback
	} else if err != nil {
		return "", err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, text); err != nil {
			log.Warnf("写入提示词缓存失败, key=%s: %v", key, err)
		}
	}
	return text, nil
}

// AppendPrompt 插入一条新提示词。不覆盖旧记录，最新一条生效。
// 缓存无法失效也无法写入新值时返回错误，避免之后读到旧提示词。
func (r *promptRepository) AppendPrompt(ctx context.Context, userID, sessionID int64, text string) error {
	err := database.WithConn(ctx, r.db, func(conn *gorm.DB) error {
		return conn.Create(&model.Prompt{UserID: userID, SessionID: sessionID, Text: text}).Error
	})
	if err != nil {
		return err
	}
	return r.refresh(ctx, promptKey(userID, sessionID), text)
}

// EvictSessionPrompts 在会话的提示词被删除后清理 userIDs 对应的缓存。
func (r *promptRepository) EvictSessionPrompts(ctx context.Context, sessionID int64, userIDs []int64) error {
	var errs []error
	for _, uid := range userIDs {
		if err := r.refresh(ctx, promptKey(uid, sessionID), r.fallback); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// refresh 让 key 不再返回旧值：优先删除，删除失败时改写为 current。
func (r *promptRepository) refresh(ctx context.Context, key, current string) error {
	if r.cache == nil {
		return nil
	}
	delErr := r.cache.Delete(ctx, key)
	if delErr == nil {
		return nil
	}
	log.Warnf("删除提示词缓存失败, key=%s: %v", key, delErr)
	if err := r.cache.Set(ctx, key, current); err != nil {
		return fmt.Errorf("prompt cache %s is stale: %w", key, errors.Join(delErr, err))
	}
	return nil
}
