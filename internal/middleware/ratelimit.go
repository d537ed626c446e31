package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "platita/internal/errors"
	"platita/internal/ratelimit"
)

// RateLimit returns a Gin middleware that throttles requests per client IP
// using the given limiter. Used on the auth endpoints to slow down
// credential guessing.
func RateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.JSON(apperrors.ErrTooManyRequests.StatusCode, gin.H{
				"error": gin.H{
					"code":    apperrors.ErrTooManyRequests.Code,
					"message": apperrors.ErrTooManyRequests.Message,
				},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
