package repository

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// TokenBlacklist 记录已注销、但尚未过期的 access token。
type TokenBlacklist interface {
	Add(ctx context.Context, token string, ttl time.Duration) error
	Contains(ctx context.Context, token string) (bool, error)
}

type redisTokenBlacklist struct {
	rdb *redis.Client
}

// NewRedisTokenBlacklist 用 Redis 实现黑名单。rdb 为 nil 时返回 nil，注销即不生效。
func NewRedisTokenBlacklist(rdb *redis.Client) TokenBlacklist {
	if rdb == nil {
		return nil
	}
	return &redisTokenBlacklist{rdb: rdb}
}

// Add 把 token 加入黑名单，token 的剩余有效期作为 key 的过期时间。
func (b *redisTokenBlacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return b.rdb.Set(ctx, "blacklist:"+token, "true", ttl).Err()
}

func (b *redisTokenBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	n, err := b.rdb.Exists(ctx, "blacklist:"+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
