package watchers

import "sync/atomic"

// State is the position of a watcher loop in its cycle
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateComparing
	StateFiltering
	StateNotifying
	StateSleeping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateComparing:
		return "comparing"
	case StateFiltering:
		return "filtering"
	case StateNotifying:
		return "notifying"
	case StateSleeping:
		return "sleeping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// stateCell is written by the owning loop and read by the registry
type stateCell struct {
	v atomic.Int32
}

func (c *stateCell) set(s State) {
	c.v.Store(int32(s))
}

func (c *stateCell) get() State {
	return State(c.v.Load())
}

// Kind identifies the watcher type
type Kind string

const (
	KindPrice Kind = "PRICE"
	KindNews  Kind = "NEWS"
)

// Kinds lists every watcher kind started for a monitored user
var Kinds = []Kind{KindPrice, KindNews}
