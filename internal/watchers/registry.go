package watchers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ipsa/internal/common"
	"github.com/ternarybob/ipsa/internal/models"
)

// ErrRegistryClosed is returned by Start after Shutdown
var ErrRegistryClosed = errors.New("watcher registry is shut down")

// Factory builds the watcher for (user, kind). logger is already correlated.
type Factory func(user models.UserID, kind Kind, logger arbor.ILogger) (Watcher, error)

type handleKey struct {
	user models.UserID
	kind Kind
}

// handle is the registry's record of one running watcher
type handle struct {
	id        string
	key       handleKey
	startedAt time.Time
	watcher   Watcher
	cancel    context.CancelFunc
	done      chan struct{}
}

// HandleInfo is a read-only view of a running watcher
type HandleInfo struct {
	ID        string
	User      models.UserID
	Kind      Kind
	StartedAt time.Time
	State     State
}

// Registry owns every running watcher. A single mutex guards the handle table;
// start and stop are rare compared to polling.
type Registry struct {
	mu      sync.Mutex
	handles map[handleKey]*handle
	closed  bool
	wg      sync.WaitGroup

	factory Factory
	logger  arbor.ILogger
}

// NewRegistry creates an empty Registry
func NewRegistry(factory Factory, logger arbor.ILogger) *Registry {
	return &Registry{
		handles: make(map[handleKey]*handle),
		factory: factory,
		logger:  logger,
	}
}

// Start launches the (user, kind) watcher. Returns false when one is
// already running; concurrent callers observe the same handle.
func (r *Registry) Start(user models.UserID, kind Kind) (bool, error) {
	key := handleKey{user: user, kind: kind}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false, ErrRegistryClosed
	}

	if existing, ok := r.handles[key]; ok {
		r.logger.Debug().
			Str("user", user.String()).
			Str("kind", string(kind)).
			Str("handle", existing.id).
			Msg("Watcher already running")
		return false, nil
	}

	id := uuid.New().String()
	watcher, err := r.factory(user, kind, r.logger.WithCorrelationId(fmt.Sprintf("%s:%s", kind, user)))
	if err != nil {
		return false, fmt.Errorf("failed to create %s watcher for user %s: %w", kind, user, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &handle{
		id:        id,
		key:       key,
		startedAt: time.Now(),
		watcher:   watcher,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	r.handles[key] = h

	r.wg.Add(1)
	r.run(ctx, h)

	r.logger.Info().
		Str("user", user.String()).
		Str("kind", string(kind)).
		Str("handle", id).
		Msg("Watcher started")

	return true, nil
}

func (r *Registry) run(ctx context.Context, h *handle) {
	common.SafeGo(r.logger, fmt.Sprintf("watcher:%s:%s", h.key.kind, h.key.user), func() {
		defer r.wg.Done()
		defer close(h.done)
		defer r.release(h)

		h.watcher.Run(ctx)
	})
}

// release removes h from the table only if it is still the current handle
func (r *Registry) release(h *handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.handles[h.key]; ok && current == h {
		delete(r.handles, h.key)
	}
	h.cancel()
}

// Stop cancels the (user, kind) watcher. Returns false when none was running.
// The loop exits at its next suspension point and never delivers afterwards.
func (r *Registry) Stop(user models.UserID, kind Kind) bool {
	return r.stop(user, kind) != nil
}

// StopAndWait stops the (user, kind) watcher and waits for its loop to exit.
// A watcher started for the same key while waiting is left running.
func (r *Registry) StopAndWait(ctx context.Context, user models.UserID, kind Kind) error {
	h := r.stop(user, kind)
	if h == nil {
		return nil
	}

	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stop takes the current (user, kind) handle out of the table and cancels it.
// Returns nil when none was running.
func (r *Registry) stop(user models.UserID, kind Kind) *handle {
	key := handleKey{user: user, kind: kind}

	r.mu.Lock()
	h, ok := r.handles[key]
	if ok {
		delete(r.handles, key)
	}
	r.mu.Unlock()

	if !ok {
		return nil
	}

	h.cancel()
	r.logger.Info().
		Str("user", user.String()).
		Str("kind", string(kind)).
		Str("handle", h.id).
		Msg("Watcher stop requested")
	return h
}

// StopAll stops every watcher of user and returns how many were running
func (r *Registry) StopAll(user models.UserID) int {
	stopped := 0
	for _, kind := range Kinds {
		if r.Stop(user, kind) {
			stopped++
		}
	}
	return stopped
}

// StartMonitoring starts every watcher kind for user
func (r *Registry) StartMonitoring(user models.UserID) error {
	var errs []error
	for _, kind := range Kinds {
		if _, err := r.Start(user, kind); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StopMonitoring stops every watcher kind for user
func (r *Registry) StopMonitoring(user models.UserID) int {
	return r.StopAll(user)
}

// Running reports whether the (user, kind) watcher is live
func (r *Registry) Running(user models.UserID, kind Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.handles[handleKey{user: user, kind: kind}]
	return ok
}

// Handles returns every live watcher ordered by user then kind
func (r *Registry) Handles() []HandleInfo {
	r.mu.Lock()
	infos := make([]HandleInfo, 0, len(r.handles))
	for _, h := range r.handles {
		infos = append(infos, HandleInfo{
			ID:        h.id,
			User:      h.key.user,
			Kind:      h.key.kind,
			StartedAt: h.startedAt,
			State:     h.watcher.State(),
		})
	}
	r.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].User != infos[j].User {
			return infos[i].User < infos[j].User
		}
		return infos[i].Kind < infos[j].Kind
	})
	return infos
}

// Count returns the number of live watchers
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Shutdown cancels every watcher and waits for all loops to exit or ctx to expire.
// Start fails with ErrRegistryClosed afterwards.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	handles := make([]*handle, 0, len(r.handles))
	for key, h := range r.handles {
		handles = append(handles, h)
		delete(r.handles, key)
	}
	r.mu.Unlock()

	for _, h := range handles {
		h.cancel()
	}

	r.logger.Info().Int("watchers", len(handles)).Msg("Shutting down watchers")

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("watchers did not stop in time: %w", ctx.Err())
	}
}
