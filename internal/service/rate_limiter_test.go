package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(20, time.Minute)
	rl.now = func() time.Time { return now }

	for i := 0; i < 20; i++ {
		assert.True(t, rl.Allow("conn-1"), "call %d should be allowed", i+1)
	}
	assert.False(t, rl.Allow("conn-1"), "21st call should be rejected")
	assert.False(t, rl.Allow("conn-1"), "rejections repeat until the window resets")

	// Other connections are independent.
	assert.True(t, rl.Allow("conn-2"))

	// After the window elapses calls succeed again.
	now = now.Add(time.Minute + time.Second)
	assert.True(t, rl.Allow("conn-1"))
}

func TestRateLimiterRetryAfter(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(1, time.Minute)
	rl.now = func() time.Time { return now }

	assert.Equal(t, 0, rl.RetryAfter("conn-1"), "no window yet")
	assert.True(t, rl.Allow("conn-1"))
	assert.False(t, rl.Allow("conn-1"))

	now = now.Add(30 * time.Second)
	retry := rl.RetryAfter("conn-1")
	assert.Equal(t, 30, retry)

	now = now.Add(31 * time.Second)
	assert.Equal(t, 0, rl.RetryAfter("conn-1"))
}

func TestRateLimiterForget(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	assert.True(t, rl.Allow("conn-1"))
	assert.False(t, rl.Allow("conn-1"))
	rl.Forget("conn-1")
	assert.True(t, rl.Allow("conn-1"), "forgotten connection starts a fresh window")
}

func TestRateLimiterSweep(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(20, time.Minute)
	rl.now = func() time.Time { return now }

	rl.Allow("idle-conn")
	rl.Allow("busy-conn")

	now = now.Add(6 * time.Minute)
	rl.Allow("busy-conn") // fresh window, updates last seen

	removed := rl.Sweep(5 * time.Minute)
	assert.Equal(t, 1, removed)
	assert.True(t, rl.Allow("idle-conn"), "evicted connection starts over")
}

func TestRateLimiterConcurrentKeys(t *testing.T) {
	rl := NewRateLimiter(20, time.Minute)

	var wg sync.WaitGroup
	results := make([]int, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i%10))
			if rl.Allow(key) {
				results[i] = 1
			}
		}(i)
	}
	wg.Wait()

	allowed := 0
	for _, r := range results {
		allowed += r
	}
	// 10 distinct keys, 5 calls each, limit 20: all must pass.
	assert.Equal(t, 50, allowed)
}
