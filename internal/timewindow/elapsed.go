package timewindow

import (
	"fmt"
	"strings"
	"time"
)

// HumanizeElapsed describes how long ago event happened relative to now,
// largest unit first: "1 day ago, 3 hours ago", "5 minutes ago", "just now".
// Parts are floored; zero parts are omitted. The difference is absolute.
func HumanizeElapsed(now, event time.Time) string {
	diff := now.Sub(event)
	if diff < 0 {
		diff = -diff
	}

	days := int64(diff / (24 * time.Hour))
	diff -= time.Duration(days) * 24 * time.Hour
	hours := int64(diff / time.Hour)
	diff -= time.Duration(hours) * time.Hour
	minutes := int64(diff / time.Minute)

	var parts []string
	if days > 0 {
		parts = append(parts, plural(days, "day")+" ago")
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour")+" ago")
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute")+" ago")
	}

	if len(parts) == 0 {
		return "just now"
	}
	return strings.Join(parts, ", ")
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
