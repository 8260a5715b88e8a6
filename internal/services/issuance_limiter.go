package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCounter is the subset of *redis.Client the limiter needs.
type redisCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisIssuanceLimiter is a fixed-window counter per key.
type RedisIssuanceLimiter struct {
	client redisCounter
	limit  int
	window time.Duration
}

func NewRedisIssuanceLimiter(client *redis.Client, limit int, window time.Duration) *RedisIssuanceLimiter {
	return newRedisIssuanceLimiter(client, limit, window)
}

func newRedisIssuanceLimiter(client redisCounter, limit int, window time.Duration) *RedisIssuanceLimiter {
	return &RedisIssuanceLimiter{client: client, limit: limit, window: window}
}

func (l *RedisIssuanceLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := "reset:issue:" + key
	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("issuance limiter incr: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("issuance limiter expire: %w", err)
		}
	}
	return n <= int64(l.limit), nil
}
