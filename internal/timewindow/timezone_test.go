package timewindow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToReference(t *testing.T) {
	// 12:00 wall clock in Moscow (UTC+3, no DST) is 09:00 UTC
	local := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	ref, err := ToReference("Europe/Moscow", local)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC), ref)
}

func TestToLocal(t *testing.T) {
	ref := time.Date(2024, 1, 15, 17, 30, 0, 0, time.UTC)
	local, err := ToLocal("America/New_York", ref)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15 12:30:00", local.Format(TimestampLayout))
}

func TestRoundTrip(t *testing.T) {
	zones := []string{"UTC", "Europe/Moscow", "America/New_York", "Asia/Tokyo", "Asia/Novosibirsk", "Europe/London"}
	instants := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 12, 15, 30, 0, time.UTC),
		time.Date(2024, 7, 4, 23, 59, 59, 0, time.UTC),
		time.Date(2025, 12, 24, 6, 1, 2, 0, time.UTC),
	}

	for _, tz := range zones {
		for _, ref := range instants {
			local, err := ToLocal(tz, ref)
			require.NoError(t, err)
			back, err := ToReference(tz, local)
			require.NoError(t, err)
			assert.True(t, ref.Equal(back), "%s: %s -> %s -> %s", tz, ref, local, back)
		}
	}
}

func TestUnknownTimezone(t *testing.T) {
	for _, tz := range []string{"", "Mars/Olympus", "not a zone"} {
		_, err := ToReference(tz, time.Now())
		assert.True(t, errors.Is(err, ErrUnknownTimezone), "ToReference(%q)", tz)

		_, err = ToLocal(tz, time.Now())
		assert.True(t, errors.Is(err, ErrUnknownTimezone), "ToLocal(%q)", tz)
	}
}

func TestToReference_KeepsOffsetOfLocalTime(t *testing.T) {
	ny, err := LoadLocation("America/New_York")
	require.NoError(t, err)

	// Both instants read 01:30 on the NY wall clock
	first := time.Date(2024, 11, 3, 5, 30, 0, 0, time.UTC)
	second := time.Date(2024, 11, 3, 6, 30, 0, 0, time.UTC)

	got, err := ToReference("America/New_York", second.In(ny))
	require.NoError(t, err)
	assert.True(t, second.Equal(got))

	got, err = ToReference("America/New_York", first.In(ny))
	require.NoError(t, err)
	assert.True(t, first.Equal(got))
}
