package translate

import (
	"context"
	"sync"
	"time"
)

// RateLimiter paces outgoing requests to a fixed interval. Each client owns
// its own limiter so two clients never contend on shared state.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter builds a limiter allowing requestsPerMinute calls. Zero or
// negative disables pacing.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	rl := &RateLimiter{
		now:   time.Now,
		sleep: sleepContext,
	}
	if requestsPerMinute > 0 {
		rl.interval = time.Minute / time.Duration(requestsPerMinute)
	}
	return rl
}

// Wait blocks until the next request slot is available or the context ends.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil || rl.interval <= 0 {
		return nil
	}
	rl.mu.Lock()
	now := rl.now()
	var wait time.Duration
	if !rl.last.IsZero() {
		if elapsed := now.Sub(rl.last); elapsed < rl.interval {
			wait = rl.interval - elapsed
		}
	}
	rl.last = now.Add(wait)
	rl.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	return rl.sleep(ctx, wait)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
