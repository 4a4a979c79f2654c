package monitor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipsa/internal/models"
	"github.com/ternarybob/ipsa/internal/watchers"
)

type fakeSource struct {
	handles []watchers.HandleInfo
	calls   atomic.Int32
}

func (f *fakeSource) Handles() []watchers.HandleInfo {
	f.calls.Add(1)
	return f.handles
}

func TestSample(t *testing.T) {
	source := &fakeSource{handles: []watchers.HandleInfo{
		{User: models.UserID(1), Kind: watchers.KindPrice, State: watchers.StateSleeping},
		{User: models.UserID(1), Kind: watchers.KindNews, State: watchers.StateFetching},
		{User: models.UserID(2), Kind: watchers.KindPrice, State: watchers.StateSleeping},
	}}

	snap := NewService(source, "", arbor.NewLogger()).Sample()

	assert.Equal(t, 3, snap.Watchers)
	assert.Equal(t, 2, snap.UsersWithWatchers)
	assert.Equal(t, 2, snap.WatchersByKind[watchers.KindPrice])
	assert.Equal(t, 1, snap.WatchersByKind[watchers.KindNews])
	assert.Equal(t, 2, snap.WatchersByState[watchers.StateSleeping])
	assert.Greater(t, snap.Goroutines, 0)
	assert.Greater(t, snap.HeapAllocBytes, uint64(0))
}

type fakeStorage struct{}

func (fakeStorage) Size() (int64, int64) { return 1024, 2048 }

func TestSample_Storage(t *testing.T) {
	s := NewService(&fakeSource{}, "", arbor.NewLogger())
	assert.Equal(t, int64(0), s.Sample().StorageBytes)

	s.SetStorage(fakeStorage{})
	assert.Equal(t, int64(3072), s.Sample().StorageBytes)
}

func TestService_StartStop(t *testing.T) {
	source := &fakeSource{}
	s := NewService(source, "@every 1s", arbor.NewLogger())

	require.NoError(t, s.Start())
	assert.Error(t, s.Start(), "second start should fail")

	assert.Eventually(t, func() bool { return source.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	s.Stop()
	s.Stop()
}

func TestService_InvalidSchedule(t *testing.T) {
	s := NewService(&fakeSource{}, "not a schedule", arbor.NewLogger())
	assert.Error(t, s.Start())
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KiB", formatBytes(1536))
	assert.Equal(t, "2.0 MiB", formatBytes(2*1024*1024))
}
