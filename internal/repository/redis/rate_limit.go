package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oneeyedreaper/onboard/internal/core/port"
)

// RateLimitRepository counts hits per key in fixed windows using INCR and EXPIRE.
type RateLimitRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRateLimitRepository constructs a repository using the provided Redis client.
func NewRateLimitRepository(client *redis.Client, keyPrefix string) *RateLimitRepository {
	return &RateLimitRepository{client: client, keyPrefix: keyPrefix}
}

// Increment records one hit and returns the number of hits in the current window.
// The first hit of a window starts its TTL.
func (r *RateLimitRepository) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, errors.New("ttl must be positive")
	}

	k := r.key(key)
	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr: %w", err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, k, ttl).Err(); err != nil {
			return 0, fmt.Errorf("redis expire: %w", err)
		}
		return count, nil
	}

	// A crash between INCR and EXPIRE would leave the key without a TTL forever.
	remaining, err := r.client.TTL(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ttl: %w", err)
	}
	if remaining < 0 {
		if err := r.client.Expire(ctx, k, ttl).Err(); err != nil {
			return 0, fmt.Errorf("redis expire: %w", err)
		}
	}

	return count, nil
}

func (r *RateLimitRepository) key(identifier string) string {
	if r.keyPrefix == "" {
		return identifier
	}
	return fmt.Sprintf("%s:%s", r.keyPrefix, identifier)
}

var _ port.RateLimitStore = (*RateLimitRepository)(nil)
