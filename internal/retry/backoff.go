// Package retry implements the exponential backoff used by every watcher:
// intra-call retry of a single data fetch (Policy) and inter-cycle
// throttling of a whole polling iteration (Backoff).
package retry

import (
	"context"
	"time"

	"github.com/jpillora/backoff"
)

// Backoff is the {attempt, delay} state of one loop. Not safe for concurrent use;
// each watcher owns its own.
//
// Failure returns the wait for the failure just observed and advances the state,
// so after n consecutive failures Delay() == min(base*2^n, max).
// Success resets to attempt 0 and the base delay.
type Backoff struct {
	base    time.Duration
	max     time.Duration
	attempt int
	delay   time.Duration
	calc    *backoff.Backoff
}

// NewBackoff creates a Backoff in its reset state
func NewBackoff(base, max time.Duration) *Backoff {
	if base <= 0 {
		base = time.Millisecond
	}
	if max < base {
		max = base
	}
	b := &Backoff{
		base: base,
		max:  max,
		calc: &backoff.Backoff{Min: base, Max: max, Factor: 2, Jitter: false},
	}
	b.Success()
	return b
}

// Failure records a failure and returns how long the caller should wait
func (b *Backoff) Failure() time.Duration {
	wait := b.delay
	b.attempt++
	b.delay = b.calc.ForAttempt(float64(b.attempt))
	return wait
}

// Success resets the state
func (b *Backoff) Success() {
	b.attempt = 0
	b.delay = b.base
}

// Attempt returns the number of consecutive failures
func (b *Backoff) Attempt() int {
	return b.attempt
}

// Delay returns min(base*2^attempt, max)
func (b *Backoff) Delay() time.Duration {
	return b.delay
}

// Base returns the reset delay
func (b *Backoff) Base() time.Duration {
	return b.base
}

// Sleep waits for d or until ctx is done, whichever comes first.
// Returns ctx.Err() when interrupted.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
