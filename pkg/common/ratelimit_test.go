package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterPerKey(t *testing.T) {
	rl := NewRateLimiter(0.0001, 2)

	assert.True(t, rl.Allow("alice"))
	assert.True(t, rl.Allow("alice"))
	assert.False(t, rl.Allow("alice"), "burst exhausted")

	assert.True(t, rl.Allow("bob"), "keys do not share buckets")
}

func TestRateLimiterUpdateLimits(t *testing.T) {
	rl := NewRateLimiter(0.0001, 1)
	assert.True(t, rl.Allow("alice"))
	assert.False(t, rl.Allow("alice"))

	rl.UpdateLimits(1000, 5)
	assert.Eventually(t, func() bool { return rl.Allow("alice") }, time.Second, 5*time.Millisecond)
}
