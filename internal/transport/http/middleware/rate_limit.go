package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/core/port"
	"github.com/oneeyedreaper/onboard/internal/transport/http/response"
)

var errRateLimited = domain.NewError(domain.KindTooManyRequests, "Too many requests, please try again later")

// RateLimitNotifier is told about rejected requests.
type RateLimitNotifier interface {
	RateLimited()
}

// RateLimiter enforces a fixed window per client IP.
type RateLimiter struct {
	store    port.RateLimitStore
	limit    int64
	window   time.Duration
	notifier RateLimitNotifier
	logger   *zap.Logger
}

// NewRateLimiter builds a limiter allowing limit requests per window.
func NewRateLimiter(store port.RateLimitStore, limit int, window time.Duration, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		store:  store,
		limit:  int64(limit),
		window: window,
		logger: logger,
	}
}

// WithNotifier attaches a sink for rejected requests.
func (rl *RateLimiter) WithNotifier(n RateLimitNotifier) *RateLimiter {
	rl.notifier = n
	return rl
}

// Handler returns the gin middleware. Store failures let the request through.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || rl.store == nil || rl.limit <= 0 || rl.window <= 0 {
			c.Next()
			return
		}

		ip := c.ClientIP()
		count, err := rl.store.Increment(c.Request.Context(), "ip:"+ip, rl.window)
		if err != nil {
			rl.logger.Warn("rate limit check failed", zap.Error(err))
			c.Next()
			return
		}

		remaining := rl.limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(rl.limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > rl.limit {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(rl.window.Seconds()))))
			if rl.notifier != nil {
				rl.notifier.RateLimited()
			}
			response.Abort(c, errRateLimited)
			return
		}

		c.Next()
	}
}
