package service

import (
	"hash/fnv"
	"sync"
	"time"
)

const rateLimiterShards = 32

// rateWindow is one connection's fixed window: submissions so far and the
// moment the window resets.
type rateWindow struct {
	count    int
	resetAt  time.Time
	lastSeen time.Time
}

type rateShard struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
}

// RateLimiter gates transcript submissions per connection with a fixed
// window that resets lazily. State is sharded by key so unrelated
// connections never contend on one lock.
type RateLimiter struct {
	shards [rateLimiterShards]*rateShard
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter creates a limiter allowing limit events per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
	for i := range rl.shards {
		rl.shards[i] = &rateShard{windows: make(map[string]*rateWindow)}
	}
	return rl
}

func (rl *RateLimiter) shard(key string) *rateShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return rl.shards[h.Sum32()%rateLimiterShards]
}

// Allow reports whether one more submission from connID fits in the current
// window. The window starts on first use and resets lazily once its end has
// passed; a rejected call does not advance the count.
func (rl *RateLimiter) Allow(connID string) bool {
	now := rl.now()
	s := rl.shard(connID)
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[connID]
	if !ok || now.After(w.resetAt) {
		s.windows[connID] = &rateWindow{count: 1, resetAt: now.Add(rl.window), lastSeen: now}
		return true
	}
	w.lastSeen = now
	if w.count >= rl.limit {
		return false
	}
	w.count++
	return true
}

// RetryAfter returns the seconds until connID's window resets, rounded up.
// Zero when no window is active.
func (rl *RateLimiter) RetryAfter(connID string) int {
	now := rl.now()
	s := rl.shard(connID)
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[connID]
	if !ok || now.After(w.resetAt) {
		return 0
	}
	secs := int(w.resetAt.Sub(now).Seconds())
	if w.resetAt.Sub(now)%time.Second != 0 {
		secs++
	}
	return secs
}

// Forget drops connID's window, called on disconnect.
func (rl *RateLimiter) Forget(connID string) {
	s := rl.shard(connID)
	s.mu.Lock()
	delete(s.windows, connID)
	s.mu.Unlock()
}

// Sweep evicts windows idle longer than maxIdle and returns how many were
// removed. Run periodically to bound memory; correctness does not depend on
// it because windows also reset lazily.
func (rl *RateLimiter) Sweep(maxIdle time.Duration) int {
	cutoff := rl.now().Add(-maxIdle)
	removed := 0
	for _, s := range rl.shards {
		s.mu.Lock()
		for key, w := range s.windows {
			if w.lastSeen.Before(cutoff) {
				delete(s.windows, key)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}
