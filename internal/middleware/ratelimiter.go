package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RateLimiter struct {
	redisClient *redis.Client
	log         *zap.Logger
}

func NewRateLimiter(client *redis.Client, log *zap.Logger) *RateLimiter {
	return &RateLimiter{redisClient: client, log: log}
}

// Limit allows limit requests per client IP and window under keySuffix. Redis errors let the
// request through.
func (rl *RateLimiter) Limit(keySuffix string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit:%s:%s", keySuffix, c.ClientIP())
		ctx := c.Request.Context()

		count, err := rl.redisClient.Incr(ctx, key).Result()
		if err != nil {
			rl.log.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		// first hit in the window starts the clock
		if count == 1 {
			if err := rl.redisClient.Expire(ctx, key, window).Err(); err != nil {
				rl.log.Warn("rate limiter expire", zap.String("key", key), zap.Error(err))
			}
		}

		if count > int64(limit) {
			ttl, _ := rl.redisClient.TTL(ctx, key).Result()
			if ttl > 0 {
				c.Header("Retry-After", fmt.Sprintf("%.0f", ttl.Seconds()))
			}
			abort(c, http.StatusTooManyRequests, "Too many requests! Please try again later.")
			return
		}
		c.Next()
	}
}
