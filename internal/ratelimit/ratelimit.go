package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// JitteredLimiter spaces actions by a base delay plus a uniform random
// component, so consecutive requests never carry a fixed timing signature.
type JitteredLimiter struct {
	base       time.Duration
	jitter     time.Duration
	lastAction time.Time
	mu         sync.Mutex
}

func NewJittered(base, jitter time.Duration) *JitteredLimiter {
	return &JitteredLimiter{
		base:   base,
		jitter: jitter,
	}
}

// Wait blocks until enough time has passed since the previous action. The
// first call returns immediately.
func (r *JitteredLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lastAction.IsZero() {
		elapsed := time.Since(r.lastAction)
		delay := r.delay()

		if elapsed < delay {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay - elapsed):
			}
		}
	}

	r.lastAction = time.Now()
	return nil
}

func (r *JitteredLimiter) delay() time.Duration {
	if r.jitter <= 0 {
		return r.base
	}
	return r.base + time.Duration(rand.Int63n(int64(r.jitter)))
}

// Sleep pauses for base plus uniform jitter, honoring cancellation. Used
// for in-page settling waits rather than inter-action spacing.
func Sleep(ctx context.Context, base, jitter time.Duration) error {
	d := base
	if jitter > 0 {
		d += time.Duration(rand.Int63n(int64(jitter)))
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
