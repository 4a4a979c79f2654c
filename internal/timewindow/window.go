package timewindow

import (
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ipsa/internal/interfaces"
)

// Window evaluates event timestamps against a user's period and timezone.
// Unknown timezones fall back to the default location with a warning.
type Window struct {
	clock    interfaces.Clock
	fallback *time.Location
	logger   arbor.ILogger
}

// NewWindow creates a Window. An unusable defaultTZ falls back to UTC.
func NewWindow(clock interfaces.Clock, defaultTZ string, logger arbor.ILogger) *Window {
	fallback, err := LoadLocation(defaultTZ)
	if err != nil {
		logger.Warn().Err(err).Str("timezone", defaultTZ).Msg("Default timezone unusable, using UTC")
		fallback = time.UTC
	}
	return &Window{
		clock:    clock,
		fallback: fallback,
		logger:   logger,
	}
}

// Location resolves tz, falling back to the default location
func (w *Window) Location(tz string) *time.Location {
	loc, err := LoadLocation(tz)
	if err != nil {
		w.logger.Warn().
			Err(err).
			Str("timezone", tz).
			Str("fallback", w.fallback.String()).
			Msg("Unknown user timezone, using fallback")
		return w.fallback
	}
	return loc
}

// Now returns the current instant in the reference frame. The clock value is
// already an instant, so its offset is kept across the local conversion.
func (w *Window) Now(tz string) time.Time {
	loc := w.Location(tz)
	return toReference(loc, w.clock.Now().In(loc))
}

// IsWithin reports whether |now - event| <= period
func (w *Window) IsWithin(event time.Time, period Period, tz string) bool {
	return IsWithin(w.Now(tz), event, period.Duration())
}

// Elapsed returns the humanized age of event
func (w *Window) Elapsed(event time.Time, tz string) string {
	return HumanizeElapsed(w.Now(tz), event)
}

// Local returns ref formatted as wall-clock time in tz
func (w *Window) Local(ref time.Time, tz string) string {
	return ref.In(w.Location(tz)).Format(TimestampLayout)
}

// IsWithin reports whether |now - event| <= d
func IsWithin(now, event time.Time, d time.Duration) bool {
	diff := now.Sub(event)
	if diff < 0 {
		diff = -diff
	}
	return diff <= d
}
