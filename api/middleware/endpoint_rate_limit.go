package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/alert-arbiter/internal/metrics"
)

// EndpointRateLimiter applies tighter limits to individual routes. Callers
// are keyed by operator when authenticated, otherwise by client IP.
type EndpointRateLimiter struct {
	limiters map[string]*RateLimiter
}

func NewEndpointRateLimiter() *EndpointRateLimiter {
	return &EndpointRateLimiter{limiters: make(map[string]*RateLimiter)}
}

// AddEndpoint limits the route registered under path, e.g. "/engagement".
// Routes must be added before Middleware is installed.
func (erl *EndpointRateLimiter) AddEndpoint(path string, limit int, window time.Duration) *EndpointRateLimiter {
	erl.limiters[path] = NewRateLimiter(limit, window)
	return erl
}

func (erl *EndpointRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter, ok := erl.limiters[c.FullPath()]
		if !ok {
			c.Next()
			return
		}

		key := GetOperator(c)
		if key == "" {
			key = c.ClientIP()
		}
		if !limiter.Allow(key) {
			metrics.RecordRateLimited(c.FullPath())
			c.Header("Retry-After", limiter.RetryAfter())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded for " + c.FullPath(),
			})
			return
		}

		c.Next()
	}
}
