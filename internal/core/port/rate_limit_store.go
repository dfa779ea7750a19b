package port

import (
	"context"
	"time"
)

// RateLimitStore counts requests in fixed windows.
type RateLimitStore interface {
	// Increment adds one hit to key and returns the count within the window.
	// The key expires once ttl elapses from its first hit.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
