package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/OldStager01/alert-arbiter/internal/metrics"
)

// maxIdleKeys bounds the per-key map before idle limiters are swept.
const maxIdleKeys = 1024

// RateLimiter allows limit requests per window for each client key, as a
// token bucket that refills over the window.
type RateLimiter struct {
	limit  int
	window time.Duration
	mu     sync.Mutex
	keys   map[string]*keyLimiter
	now    func() time.Time
}

type keyLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: period,
		keys:   make(map[string]*keyLimiter),
		now:    time.Now,
	}
}

// Allow spends one token for key. A non-positive limit disables limiting.
func (rl *RateLimiter) Allow(key string) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	k, ok := rl.keys[key]
	if !ok {
		rl.sweep(now)
		k = &keyLimiter{limiter: rate.NewLimiter(rate.Every(rl.window/time.Duration(rl.limit)), rl.limit)}
		rl.keys[key] = k
	}
	k.lastSeen = now
	return k.limiter.AllowN(now, 1)
}

// RetryAfter is the Retry-After value in whole seconds.
func (rl *RateLimiter) RetryAfter() string {
	return strconv.Itoa(int(math.Ceil(rl.window.Seconds())))
}

// sweep forgets keys idle for a full window; their buckets would be full.
func (rl *RateLimiter) sweep(now time.Time) {
	if len(rl.keys) < maxIdleKeys {
		return
	}
	for key, k := range rl.keys {
		if now.Sub(k.lastSeen) >= rl.window {
			delete(rl.keys, key)
		}
	}
}

func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			metrics.RecordRateLimited("global")
			c.Header("Retry-After", limiter.RetryAfter())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": limiter.window.Seconds(),
			})
			return
		}
		c.Next()
	}
}
