package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/vidscribe/resilience"
)

// RateLimit rejects requests with 429 once the client's token bucket is
// empty. Buckets are keyed by client IP and pruned every minute until ctx
// ends.
func RateLimit(ctx context.Context, cfg resilience.RateLimiterConfig) gin.HandlerFunc {
	limiter := resilience.NewKeyedRateLimiter(cfg)

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Prune()
			}
		}
	}()

	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
				"code":  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}
