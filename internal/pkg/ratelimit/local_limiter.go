package ratelimit

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// LocalLimiter is the single-process fallback used when Redis is not
// configured, and by tests. go-cache's Add is an add-if-absent under the
// cache mutex, which gives the same check-and-set atomicity as SET NX.
type LocalLimiter struct {
	cache *cache.Cache
}

func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{
		cache: cache.New(time.Minute, 5*time.Minute),
	}
}

func (l *LocalLimiter) Allow(ctx context.Context, key string, cooldown time.Duration) bool {
	err := l.cache.Add(key, time.Now(), cooldown)
	return err == nil
}
