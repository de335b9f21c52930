package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"academy-chat/internal/observability"
	"academy-chat/internal/ratelimit"
)

// RateLimitMiddleware gates requests per authenticated user under the given
// window. Rejections carry a Retry-After header; the caller decides whether
// to retry.
func RateLimitMiddleware(limiter *ratelimit.Limiter, window ratelimit.Window) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := strconv.Itoa(c.GetInt("userID"))
		if identity == "0" {
			identity = observability.IPFromRequest(c.Request)
		}

		allowed, retryAfter := limiter.Allow(identity, window)
		if !allowed {
			observability.IncRateLimited(window.Name)
			seconds := int(math.Ceil(retryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": seconds,
			})
			return
		}
		c.Next()
	}
}
