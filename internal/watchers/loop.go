package watchers

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ipsa/internal/retry"
)

// Watcher is a long-lived polling loop owned by the Registry.
// Run returns only when ctx is cancelled.
type Watcher interface {
	Run(ctx context.Context)
	State() State
}

// loop drives the Sleeping transition shared by every watcher kind.
// A failed cycle sleeps the inter-cycle backoff delay, a successful one
// resets it and sleeps the fixed interval.
type loop struct {
	name     string
	interval time.Duration
	state    *stateCell
	backoff  *retry.Backoff
	logger   arbor.ILogger
}

func newLoop(name string, interval, maxBackoff time.Duration, state *stateCell, logger arbor.ILogger) *loop {
	return &loop{
		name:     name,
		interval: interval,
		state:    state,
		backoff:  retry.NewBackoff(interval, maxBackoff),
		logger:   logger,
	}
}

func (l *loop) run(ctx context.Context, cycle func(ctx context.Context) error) {
	defer l.state.set(StateStopped)

	l.logger.Info().Str("watcher", l.name).Dur("interval", l.interval).Msg("Watcher started")

	for ctx.Err() == nil {
		err := l.safeCycle(ctx, cycle)
		if ctx.Err() != nil {
			break
		}

		wait := l.interval
		if err != nil {
			wait = l.backoff.Failure()
			l.logger.Warn().
				Str("watcher", l.name).
				Err(err).
				Int("consecutive_failures", l.backoff.Attempt()).
				Dur("wait", wait).
				Msg("Cycle failed, backing off")
		} else {
			l.backoff.Success()
		}

		l.state.set(StateSleeping)
		if err := retry.Sleep(ctx, wait); err != nil {
			break
		}
	}

	l.logger.Info().Str("watcher", l.name).Msg("Watcher stopped")
}

// safeCycle converts a panic inside one cycle into a cycle failure
func (l *loop) safeCycle(ctx context.Context, cycle func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().
				Str("watcher", l.name).
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", string(debug.Stack())).
				Msg("Recovered from panic in watcher cycle")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return cycle(ctx)
}
