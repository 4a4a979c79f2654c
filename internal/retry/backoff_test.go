package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_DoublesUpToMax(t *testing.T) {
	b := NewBackoff(time.Second, 10*time.Second)
	assert.Equal(t, 0, b.Attempt())
	assert.Equal(t, time.Second, b.Delay())

	waits := []time.Duration{}
	for i := 0; i < 6; i++ {
		waits = append(waits, b.Failure())
	}

	assert.Equal(t, []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}, waits)
	assert.Equal(t, 6, b.Attempt())
	assert.Equal(t, 10*time.Second, b.Delay())
}

func TestBackoff_DelayAfterNFailures(t *testing.T) {
	base := 30 * time.Second
	max := 10 * time.Minute

	for n := 0; n < 12; n++ {
		b := NewBackoff(base, max)
		for i := 0; i < n; i++ {
			b.Failure()
		}
		want := base << uint(n)
		if want > max {
			want = max
		}
		assert.Equal(t, want, b.Delay(), "after %d failures", n)
	}
}

func TestBackoff_SuccessResets(t *testing.T) {
	b := NewBackoff(time.Second, time.Minute)
	b.Failure()
	b.Failure()
	b.Failure()

	b.Success()
	assert.Equal(t, 0, b.Attempt())
	assert.Equal(t, time.Second, b.Delay())
	assert.Equal(t, time.Second, b.Failure())
}

func TestBackoff_MaxBelowBase(t *testing.T) {
	b := NewBackoff(time.Minute, time.Second)
	assert.Equal(t, time.Minute, b.Failure())
	assert.Equal(t, time.Minute, b.Delay())
}

func TestSleep_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := Sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSleep_Elapses(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
}
