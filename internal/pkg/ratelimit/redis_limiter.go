package ratelimit

import (
	"context"
	"time"

	"realtime-chat-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter throttles across all instances sharing the Redis node.
// SET NX EX is a single atomic check-and-set, so two concurrent callers
// for the same key cannot both pass the gate.
type RedisLimiter struct {
	rdb    *redis.Client
	logger logger.ILogger
}

func NewRedisLimiter(rdb *redis.Client, log logger.ILogger) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, logger: log}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, cooldown time.Duration) bool {
	ok, err := l.rdb.SetNX(ctx, "ratelimit:"+key, time.Now().Unix(), cooldown).Result()
	if err != nil {
		// Fail open: a throttle outage must not block chat traffic.
		l.logger.Warn("RateLimit", "Redis SetNX failed, allowing event", map[string]interface{}{"key": key, "error": err.Error()})
		return true
	}
	return ok
}
