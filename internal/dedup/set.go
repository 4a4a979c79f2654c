// Package dedup remembers event identifiers that were already delivered.
//
// A Set is owned by exactly one watcher goroutine and does no locking.
// Entries are never evicted: the scope is "seen since process start",
// so memory grows with the number of distinct events observed.
package dedup

// Set is a single-owner membership set
type Set[K comparable] struct {
	items map[K]struct{}
}

// New creates an empty Set
func New[K comparable]() *Set[K] {
	return &Set[K]{items: make(map[K]struct{})}
}

// Seen reports whether k was marked
func (s *Set[K]) Seen(k K) bool {
	_, ok := s.items[k]
	return ok
}

// Mark records k. Marking twice is a no-op.
func (s *Set[K]) Mark(k K) {
	s.items[k] = struct{}{}
}

// Len returns the number of marked keys
func (s *Set[K]) Len() int {
	return len(s.items)
}
