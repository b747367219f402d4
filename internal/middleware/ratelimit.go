package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/flow4ops/backend/pkg/ratelimit"
	"github.com/flow4ops/backend/pkg/response"
)

// LoginRateLimit throttles login attempts per client IP. A nil limiter
// disables throttling.
func LoginRateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		if !limiter.Allow(c.Request.Context(), "login:"+c.ClientIP()) {
			response.TooManyRequests(c, "too many login attempts, try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}
