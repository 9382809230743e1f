package ratelimit

import (
	"context"
	"time"
)

// Limiter is a per-key cooldown gate. The first caller for a fresh key
// passes and starts the window; callers inside the window are denied and
// their operation is silently dropped. This is a fixed-window throttle,
// not a token bucket.
type Limiter interface {
	Allow(ctx context.Context, key string, cooldown time.Duration) bool
}
