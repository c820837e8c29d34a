package search

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle spaces outbound provider calls with a token bucket so the
// pipeline respects external rate limits without scattering sleeps.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle creates a throttle enforcing a minimum interval between
// calls. A non-positive interval disables throttling, which is what
// tests use to avoid wall-clock waits.
func NewThrottle(interval time.Duration) *Throttle {
	if interval <= 0 {
		return &Throttle{}
	}
	return &Throttle{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Wait blocks until the next call is allowed or the context ends.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil || t.limiter == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}

// Allow reports whether a call may proceed right now without waiting.
func (t *Throttle) Allow() bool {
	if t == nil || t.limiter == nil {
		return true
	}
	return t.limiter.Allow()
}
