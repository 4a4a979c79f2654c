// Package monitor periodically logs process resource usage and watcher counts.
package monitor

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipsa/internal/common"
	"github.com/ternarybob/ipsa/internal/watchers"
)

// WatcherSource exposes the running watcher set
type WatcherSource interface {
	Handles() []watchers.HandleInfo
}

// StorageSizer reports on-disk database size
type StorageSizer interface {
	Size() (lsm, vlog int64)
}

// Snapshot is one resource sample
type Snapshot struct {
	Goroutines        int
	SafeGoStarted     int64
	SafeGoRunning     int64
	HeapAllocBytes    uint64
	HeapObjects       uint64
	NumGC             uint32
	Watchers          int
	WatchersByKind    map[watchers.Kind]int
	WatchersByState   map[watchers.State]int
	UsersWithWatchers int
	StorageBytes      int64
}

// Service logs a Snapshot on a cron schedule
type Service struct {
	source   WatcherSource
	storage  StorageSizer
	schedule string
	cron     *cron.Cron
	logger   arbor.ILogger
	mu       sync.Mutex
	running  bool
}

// NewService creates a monitor; call Start to begin sampling
func NewService(source WatcherSource, schedule string, logger arbor.ILogger) *Service {
	if schedule == "" {
		schedule = "@every 60s"
	}
	return &Service{
		source:   source,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger,
	}
}

// SetStorage adds database size to each sample
func (s *Service) SetStorage(storage StorageSizer) {
	s.storage = storage
}

// Start registers the sampling job and starts the cron runner
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("monitor already running")
	}

	if _, err := s.cron.AddFunc(s.schedule, s.log); err != nil {
		return fmt.Errorf("failed to add monitor job: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().Str("schedule", s.schedule).Msg("Resource monitor started")
	return nil
}

// Stop halts the cron runner and waits for a running sample to finish
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info().Msg("Resource monitor stopped")
}

// Sample collects the current snapshot
func (s *Service) Sample() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	started, running := common.GoroutineStats()

	snap := Snapshot{
		Goroutines:      runtime.NumGoroutine(),
		SafeGoStarted:   started,
		SafeGoRunning:   running,
		HeapAllocBytes:  mem.HeapAlloc,
		HeapObjects:     mem.HeapObjects,
		NumGC:           mem.NumGC,
		WatchersByKind:  make(map[watchers.Kind]int),
		WatchersByState: make(map[watchers.State]int),
	}

	users := make(map[string]struct{})
	for _, h := range s.source.Handles() {
		snap.Watchers++
		snap.WatchersByKind[h.Kind]++
		snap.WatchersByState[h.State]++
		users[h.User.String()] = struct{}{}
	}
	snap.UsersWithWatchers = len(users)

	if s.storage != nil {
		lsm, vlog := s.storage.Size()
		snap.StorageBytes = lsm + vlog
	}

	return snap
}

func (s *Service) log() {
	snap := s.Sample()

	event := s.logger.Info().
		Int("goroutines", snap.Goroutines).
		Int64("safego_started", snap.SafeGoStarted).
		Int64("safego_running", snap.SafeGoRunning).
		Str("heap_alloc", formatBytes(snap.HeapAllocBytes)).
		Int("gc_cycles", int(snap.NumGC)).
		Int("watchers", snap.Watchers).
		Int("users", snap.UsersWithWatchers).
		Str("storage", formatBytes(uint64(snap.StorageBytes)))

	for _, kind := range watchers.Kinds {
		event = event.Int("watchers_"+string(kind), snap.WatchersByKind[kind])
	}

	event.Msg("Resource usage")
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
