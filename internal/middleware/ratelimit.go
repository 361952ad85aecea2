package middleware

import (
	"net/http"
	"sync"

	"solarnotify/internal/common"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter throttles requests with one token bucket per client IP. The
// callers are admin dashboards, a small fixed population, so buckets live in
// memory and are never evicted.
type RateLimiter struct {
	buckets map[string]*rate.Limiter
	mu      sync.RWMutex
	rate    rate.Limit
	burst   int
}

// NewRateLimiter creates a limiter allowing rps sustained requests per
// second with the given burst, tracked per client IP.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*rate.Limiter),
		rate:    rate.Limit(rps),
		burst:   burst,
	}
}

// bucketFor returns the token bucket for ip, creating it on first sight.
func (rl *RateLimiter) bucketFor(ip string) *rate.Limiter {
	rl.mu.RLock()
	bucket, ok := rl.buckets[ip]
	rl.mu.RUnlock()

	if ok {
		return bucket
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Another request may have created it between the locks.
	if bucket, ok = rl.buckets[ip]; ok {
		return bucket
	}

	bucket = rate.NewLimiter(rl.rate, rl.burst)
	rl.buckets[ip] = bucket
	return bucket
}

// Middleware rejects requests over the per-IP budget with 429.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.bucketFor(c.ClientIP()).Allow() {
			common.Error(c, http.StatusTooManyRequests, "rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}
