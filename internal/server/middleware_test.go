package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPLimitersPrunesIdleEntries(t *testing.T) {
	clock := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	limiters := newIPLimiters()
	limiters.now = func() time.Time { return clock }

	limiters.get("10.0.0.1")
	limiters.get("10.0.0.2")
	require.Equal(t, 2, limiters.len())

	// First client keeps hitting, second goes quiet.
	clock = clock.Add(authLimiterIdleTTL - time.Minute)
	limiters.get("10.0.0.1")

	clock = clock.Add(2 * time.Minute)
	limiters.get("10.0.0.3")

	assert.Equal(t, 2, limiters.len())
	_, active := limiters.entries["10.0.0.1"]
	assert.True(t, active)
	_, stale := limiters.entries["10.0.0.2"]
	assert.False(t, stale)
}

func TestIPLimitersReusesLimiterPerIP(t *testing.T) {
	limiters := newIPLimiters()

	first := limiters.get("192.168.1.5")
	second := limiters.get("192.168.1.5")
	other := limiters.get("192.168.1.6")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, limiters.len())
}

func TestIPLimitersThrottlesAfterBurst(t *testing.T) {
	limiters := newIPLimiters()
	limiter := limiters.get("203.0.113.9")

	allowed := 0
	for i := 0; i < 20; i++ {
		if limiter.Allow() {
			allowed++
		}
	}

	// Burst of 10, then the per-second refill gates further attempts.
	assert.Equal(t, 10, allowed)
}
