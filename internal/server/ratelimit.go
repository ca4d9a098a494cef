package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/simplrtech/sqlgpt/internal/observability"
)

const rateLimitPrefix = "ratelimit:"

// RateLimiter provides per-client rate limiting backed by Redis using a
// fixed one-minute window. Counters are shared across replicas, so the
// limit holds for the service as a whole rather than per instance.
type RateLimiter struct {
	redis          *redis.Client
	limitPerMinute int
	logger         *observability.Logger
}

// NewRateLimiter creates a Redis-backed rate limiter
func NewRateLimiter(redisClient *redis.Client, limitPerMinute int) *RateLimiter {
	return &RateLimiter{
		redis:          redisClient,
		limitPerMinute: limitPerMinute,
		logger:         observability.NewLogger("ratelimit"),
	}
}

// Allow checks and records a request for a client. It fails open: if
// Redis is unreachable the request is admitted rather than rejected,
// since rate limiting is protective, not a security boundary.
func (rl *RateLimiter) Allow(ctx context.Context, clientID string) bool {
	if rl.limitPerMinute <= 0 {
		return true
	}

	window := time.Now().Unix() / 60
	key := fmt.Sprintf("%s%s:%d", rateLimitPrefix, clientID, window)

	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		rl.logger.Warn(ctx, "Rate limit check failed, admitting request", map[string]interface{}{
			"client_id": clientID,
			"error":     err.Error(),
		})
		return true
	}

	if count == 1 {
		// First request in this window; expire the counter after two
		// windows so stale keys never accumulate
		if err := rl.redis.Expire(ctx, key, 2*time.Minute).Err(); err != nil {
			rl.logger.Warn(ctx, "Failed to set rate limit key expiry", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}

	return count <= int64(rl.limitPerMinute)
}

// Middleware rejects requests over the per-IP limit with 429
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.ClientIP()

		if !rl.Allow(c.Request.Context(), clientID) {
			observability.GetGlobalMetrics().Inc(observability.MetricRateLimited, map[string]string{
				"path": c.FullPath(),
			})
			rl.logger.Warn(c.Request.Context(), "Rate limit exceeded", map[string]interface{}{
				"client_id": clientID,
				"path":      c.FullPath(),
			})
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please slow down and try again.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
