package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/pkg/metrics"
	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware guards the auth endpoints with a per-IP token bucket.
// Limiter errors fail open: losing Redis should not lock users out.
func RateLimitMiddleware(limiter *ratelimit.RateLimiter, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP(), time.Now().UnixMilli())
		if err != nil && logger != nil {
			logger.Warn("rate limit check failed", slog.String("error", err.Error()))
		}
		if !allowed {
			metrics.RateLimitedTotal.Inc()
			c.JSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests, please try again later"})
			c.Abort()
			return
		}
		c.Next()
	}
}
