package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pricedrop/notifier/internal/utils"
)

// SubscribeRateLimiter caps subscription attempts per client IP. Subscribe
// triggers an outbound page fetch and an email, so it is the one endpoint
// worth protecting from abuse.
type SubscribeRateLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptInfo

	limit  int
	window time.Duration
}

type attemptInfo struct {
	count   int
	firstAt time.Time
}

// NewSubscribeRateLimiter constructs a limiter allowing limit attempts per
// window per IP.
func NewSubscribeRateLimiter(limit int, window time.Duration) *SubscribeRateLimiter {
	rl := &SubscribeRateLimiter{
		attempts: make(map[string]*attemptInfo),
		limit:    limit,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

// Allow checks if ip can make another attempt within the current window.
func (r *SubscribeRateLimiter) Allow(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	info, exists := r.attempts[ip]
	if !exists {
		r.attempts[ip] = &attemptInfo{count: 1, firstAt: now}
		return true
	}

	// Reset if window expired
	if now.Sub(info.firstAt) > r.window {
		r.attempts[ip] = &attemptInfo{count: 1, firstAt: now}
		return true
	}

	if info.count >= r.limit {
		return false
	}
	info.count++
	return true
}

// Middleware rejects over-limit requests with 429.
func (r *SubscribeRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.Allow(c.ClientIP()) {
			utils.Error(c, 429, "RATE_LIMITED", "Too many subscription attempts, try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (r *SubscribeRateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	for range ticker.C {
		r.mu.Lock()
		now := time.Now()
		for ip, info := range r.attempts {
			if now.Sub(info.firstAt) > r.window {
				delete(r.attempts, ip)
			}
		}
		r.mu.Unlock()
	}
}
