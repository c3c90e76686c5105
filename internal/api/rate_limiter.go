package api

import (
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter manages per-client rate limiting for admin API requests.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex

	limit rate.Limit
	burst int
}

// NewRateLimiter creates a rate limiter allowing requestsPerSec per client.
func NewRateLimiter(requestsPerSec int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(requestsPerSec),
		burst:    requestsPerSec * 2,
	}
}

// Allow reports whether the client may make another request now.
func (rl *RateLimiter) Allow(client string) bool {
	return rl.getLimiter(client).Allow()
}

// getLimiter returns the limiter for a client, creating it on first use.
func (rl *RateLimiter) getLimiter(client string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[client]
	rl.mu.RUnlock()

	if exists {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Re-check under the write lock
	if limiter, exists = rl.limiters[client]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters[client] = limiter
	return limiter
}
