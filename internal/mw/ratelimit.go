package mw

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// DefaultLimiterIdle is how long a client's limiter is kept after its last
// request.
const DefaultLimiterIdle = 10 * time.Minute

// IPRateLimiter stores a rate limiter for each client IP. Limiters of clients
// that stay idle longer than the expiry are dropped.
type IPRateLimiter struct {
	limiters *cache.Cache
	mu       sync.Mutex
	r        rate.Limit
	b        int
}

// NewIPRateLimiter creates a new IPRateLimiter. A non-positive idle uses
// DefaultLimiterIdle.
func NewIPRateLimiter(r rate.Limit, b int, idle time.Duration) *IPRateLimiter {
	if idle <= 0 {
		idle = DefaultLimiterIdle
	}
	return &IPRateLimiter{
		limiters: cache.New(idle, 2*idle),
		r:        r,
		b:        b,
	}
}

// GetLimiter returns the rate limiter for an IP address, creating it on
// first use. Every call pushes the limiter's expiry back.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, ok := i.limiters.Get(ip)
	if !ok {
		limiter = rate.NewLimiter(i.r, i.b)
	}
	i.limiters.SetDefault(ip, limiter)
	return limiter.(*rate.Limiter)
}

// Tracked returns the number of clients with a live limiter.
func (i *IPRateLimiter) Tracked() int {
	return i.limiters.ItemCount()
}

// RateLimiter is a middleware for IP-based rate limiting.
func RateLimiter(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
				"kind":  "rate_limited",
			})
			return
		}
		c.Next()
	}
}
