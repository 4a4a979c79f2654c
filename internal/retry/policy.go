package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ipsa/internal/interfaces"
)

const (
	DefaultMaxAttempts    = 3
	DefaultBaseDelay      = time.Second
	DefaultMaxDelay       = 10 * time.Second
	DefaultAttemptTimeout = 20 * time.Second
)

// Config holds intra-call retry settings
type Config struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	AttemptTimeout time.Duration
}

// Policy retries a single data fetch a bounded number of times per cycle.
// Policy is stateless between calls and may be shared by watchers.
type Policy struct {
	config Config
	logger arbor.ILogger
}

// NewPolicy creates a Policy, filling unset fields with defaults
func NewPolicy(config Config, logger arbor.ILogger) *Policy {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = DefaultBaseDelay
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = DefaultMaxDelay
	}
	if config.AttemptTimeout <= 0 {
		config.AttemptTimeout = DefaultAttemptTimeout
	}
	return &Policy{
		config: config,
		logger: logger,
	}
}

// Config returns the effective settings
func (p *Policy) Config() Config {
	return p.config
}

// Execute runs op under the policy, discarding any result
func (p *Policy) Execute(ctx context.Context, name string, op func(ctx context.Context) error) error {
	_, err := Do(ctx, p, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Do runs op up to MaxAttempts times. Each attempt is bounded by AttemptTimeout.
// Between attempts it waits with its own Backoff. It stops early when ctx is
// done or when op returns a non-retryable error.
func Do[T any](ctx context.Context, p *Policy, name string, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	b := NewBackoff(p.config.BaseDelay, p.config.MaxDelay)

	var lastErr error
	for attempt := 1; attempt <= p.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := runAttempt(ctx, p.config.AttemptTimeout, op)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if !Retryable(err) {
			return zero, err
		}
		if attempt == p.config.MaxAttempts {
			break
		}

		wait := b.Failure()
		p.logger.Debug().
			Str("operation", name).
			Int("attempt", attempt).
			Dur("wait", wait).
			Err(err).
			Msg("Attempt failed, retrying")

		if err := Sleep(ctx, wait); err != nil {
			return zero, err
		}
	}

	return zero, fmt.Errorf("%s failed after %d attempts: %w", name, p.config.MaxAttempts, lastErr)
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return op(attemptCtx)
}

// Retryable reports whether err is worth another attempt.
// Malformed data, configuration errors and cancellation are final.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, interfaces.ErrDataFormat),
		errors.Is(err, interfaces.ErrConfiguration),
		errors.Is(err, context.Canceled):
		return false
	default:
		return true
	}
}
