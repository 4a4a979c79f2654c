package timewindow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func TestWindow_IsWithin(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	w := NewWindow(fixedClock{now: now}, DefaultTimezone, arbor.NewLogger())

	event := now.Add(-90 * time.Minute)

	assert.False(t, w.IsWithin(event, MustParsePeriod("1 hours"), "Europe/Moscow"))
	assert.True(t, w.IsWithin(event, MustParsePeriod("3 hours"), "Europe/Moscow"))
	assert.True(t, w.IsWithin(event, MustParsePeriod("90 minutes"), "America/New_York"))
	assert.False(t, w.IsWithin(event, MustParsePeriod("89 minutes"), "America/New_York"))

	// Future timestamps are compared by absolute difference
	assert.True(t, w.IsWithin(now.Add(30*time.Minute), MustParsePeriod("1 hour"), "UTC"))
}

func TestWindow_UnknownTimezoneFallsBack(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	w := NewWindow(fixedClock{now: now}, DefaultTimezone, arbor.NewLogger())

	assert.Equal(t, time.UTC, w.Location("Nowhere/Special"))
	assert.True(t, w.IsWithin(now.Add(-time.Minute), MustParsePeriod("2 minutes"), "Nowhere/Special"))
}

func TestWindow_NowIsTimezoneIndependent(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	w := NewWindow(fixedClock{now: now}, DefaultTimezone, arbor.NewLogger())

	for _, tz := range []string{"UTC", "Asia/Tokyo", "America/Los_Angeles"} {
		assert.True(t, now.Equal(w.Now(tz)), tz)
	}
}

func TestWindow_NowDuringFallBackHour(t *testing.T) {
	// 06:30 UTC is the second 01:30 in New York on the fall-back day
	now := time.Date(2024, 11, 3, 6, 30, 0, 0, time.UTC)
	w := NewWindow(fixedClock{now: now}, DefaultTimezone, arbor.NewLogger())
	tz := "America/New_York"

	assert.True(t, now.Equal(w.Now(tz)), "now drifted to %s", w.Now(tz))

	event := now.Add(-5 * time.Minute)
	assert.True(t, w.IsWithin(event, MustParsePeriod("30 minutes"), tz))
	assert.Equal(t, "5 minutes ago", w.Elapsed(event, tz))
}

func TestWindow_Local(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	w := NewWindow(fixedClock{now: now}, DefaultTimezone, arbor.NewLogger())

	assert.Equal(t, "2024-06-01 21:00:00", w.Local(now, "Asia/Tokyo"))
	assert.Equal(t, "2024-06-01 12:00:00", w.Local(now, "bogus"))
}

func TestHumanizeElapsed(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		ago  time.Duration
		want string
	}{
		{0, "just now"},
		{59 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{5*time.Minute + 59*time.Second, "5 minutes ago"},
		{time.Hour, "1 hour ago"},
		{2*time.Hour + 3*time.Minute, "2 hours ago, 3 minutes ago"},
		{48 * time.Hour, "2 days ago"},
		{25*time.Hour + time.Minute, "1 day ago, 1 hour ago, 1 minute ago"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, HumanizeElapsed(now, now.Add(-tt.ago)))
		})
	}

	// Absolute difference
	assert.Equal(t, "10 minutes ago", HumanizeElapsed(now, now.Add(10*time.Minute)))
}
