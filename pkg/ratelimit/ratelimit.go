// Package ratelimit provides a Redis-backed fixed-window counter used to
// slow brute-force attempts against the login endpoint.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter counts attempts per key in a fixed window.
type Limiter struct {
	client *redis.Client
	max    int
	window time.Duration
	logger *zap.Logger
}

// NewLimiter creates a limiter allowing max attempts per window.
func NewLimiter(client *redis.Client, max int, window time.Duration, logger *zap.Logger) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{client: client, max: max, window: window, logger: logger}
}

// Allow increments the counter for key and reports whether the attempt is
// within the limit. Redis failures fail open with a warning: availability of
// login outranks the limiter.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	redisKey := fmt.Sprintf("ratelimit:%s", key)
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		l.logger.Warn("rate limiter unavailable, failing open", zap.Error(err))
		return true
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			l.logger.Warn("rate limiter expire failed", zap.Error(err))
		}
	}
	return count <= int64(l.max)
}
