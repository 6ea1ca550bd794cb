package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/readmission-risk-server/internal/domain"
)

// RateLimit rejects requests with 429 once the shared token bucket is empty.
func RateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, domain.NewAPIError(
				domain.ErrRateLimit,
				"Too many requests",
				"retry after a short delay",
				GetCorrelationID(c),
			))
			return
		}
		c.Next()
	}
}

// NewLimiter builds the API token bucket from configuration. A disabled limiter allows
// every request.
func NewLimiter(cfg domain.RateLimitConfig) *rate.Limiter {
	if !cfg.Enabled {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
}
