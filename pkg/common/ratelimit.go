package common

import (
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter provides per-caller token buckets with dynamically adjustable
// limits. Each distinct key gets its own limiter created on first use.
type RateLimiter struct {
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// NewRateLimiter creates a RateLimiter that allows rps events per second for
// every key with bursts of up to burst events.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether an event for key may happen now.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiterFor(key).Allow()
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[key]
	if !ok {
		l = rate.NewLimiter(rl.rps, rl.burst)
		rl.limiters[key] = l
	}
	return l
}

// UpdateLimits adjusts the limits of every existing and future key.
func (rl *RateLimiter) UpdateLimits(rps float64, burst int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.rps = rate.Limit(rps)
	rl.burst = burst
	for _, l := range rl.limiters {
		l.SetLimit(rl.rps)
		l.SetBurst(burst)
	}
}
