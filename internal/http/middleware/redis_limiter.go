package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSlidingWindowLimiter keeps one sorted set per key with request
// timestamps as scores, so every replica of the service shares one window.
type RedisSlidingWindowLimiter struct {
	client *redis.Client
	prefix string
}

func NewRedisSlidingWindowLimiter(client *redis.Client, prefix string) *RedisSlidingWindowLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisSlidingWindowLimiter{client: client, prefix: prefix}
}

func (l *RedisSlidingWindowLimiter) Allow(ctx context.Context, key string, policy RateLimitPolicy) (Decision, error) {
	policy = normalizePolicy(policy)
	now := time.Now()
	cutoff := now.Add(-policy.Window)
	redisKey := fmt.Sprintf("%s:{%s}", l.prefix, key)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", cutoff.UnixNano()))
	countCmd := pipe.ZCard(ctx, redisKey)
	oldestCmd := pipe.ZRangeWithScores(ctx, redisKey, 0, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("rate limit window read: %w", err)
	}

	count := countCmd.Val()
	if count >= int64(policy.Limit) {
		retry := time.Second
		if oldest := oldestCmd.Val(); len(oldest) > 0 {
			oldestAt := time.Unix(0, int64(oldest[0].Score))
			if until := oldestAt.Add(policy.Window).Sub(now); until > 0 {
				retry = until
			}
		}
		return Decision{Allowed: false, RetryAfter: retry, Remaining: 0, ResetAt: now.Add(retry)}, nil
	}

	add := l.client.TxPipeline()
	add.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d", now.UnixNano()),
	})
	add.Expire(ctx, redisKey, policy.Window+time.Second)
	if _, err := add.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("rate limit window write: %w", err)
	}

	remaining := policy.Limit - int(count) - 1
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Remaining: remaining, ResetAt: now.Add(policy.Window)}, nil
}
