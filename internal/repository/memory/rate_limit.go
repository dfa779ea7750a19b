// Package memory holds process-local stores used when Redis is disabled.
package memory

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/oneeyedreaper/onboard/internal/core/port"
)

// RateLimitStore keeps fixed-window counters in process memory.
type RateLimitStore struct {
	cache *gocache.Cache
}

// NewRateLimitStore constructs an in-memory store purging expired windows every cleanup interval.
func NewRateLimitStore(cleanup time.Duration) *RateLimitStore {
	return &RateLimitStore{cache: gocache.New(gocache.NoExpiration, cleanup)}
}

// Increment records one hit for key and returns the count in the current window.
func (s *RateLimitStore) Increment(_ context.Context, key string, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, errors.New("ttl must be positive")
	}

	for {
		if err := s.cache.Add(key, int64(1), ttl); err == nil {
			return 1, nil
		}
		count, err := s.cache.IncrementInt64(key, 1)
		if err == nil {
			return count, nil
		}
		// expired between Add and Increment; start a new window
	}
}

var _ port.RateLimitStore = (*RateLimitStore)(nil)
