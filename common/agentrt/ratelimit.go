package agentrt

import (
	"sync"
	"time"
)

// RateLimiter bounds how many requests a single sender may issue per
// window. It is the runtime analog of the original framework's quota
// protocol: over-limit senders get an explicit error reply, not silence.
type RateLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	senders map[string]*windowCount
	now     func() time.Time
}

type windowCount struct {
	start time.Time
	count int
}

// NewRateLimiter creates a limiter allowing max requests per window.
// A max of zero or less disables limiting.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		max:     max,
		window:  window,
		senders: make(map[string]*windowCount),
		now:     time.Now,
	}
}

// Allow reports whether the sender may issue another request. Anonymous
// senders (empty address) share one bucket.
func (rl *RateLimiter) Allow(sender string) bool {
	if rl == nil || rl.max <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	wc, ok := rl.senders[sender]
	if !ok || now.Sub(wc.start) >= rl.window {
		rl.prune(now)
		rl.senders[sender] = &windowCount{start: now, count: 1}
		return true
	}

	if wc.count >= rl.max {
		return false
	}
	wc.count++
	return true
}

// prune drops expired windows. Called with the lock held.
func (rl *RateLimiter) prune(now time.Time) {
	for sender, wc := range rl.senders {
		if now.Sub(wc.start) >= rl.window {
			delete(rl.senders, sender)
		}
	}
}
