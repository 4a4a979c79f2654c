// Package timewindow provides the date/time arithmetic used to filter events
// by recency: period strings, timezone conversion and elapsed-time phrases.
package timewindow

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/ipsa/internal/interfaces"
)

// ErrInvalidPeriodFormat is returned for period strings that are not "<int> <unit>"
var ErrInvalidPeriodFormat = fmt.Errorf("%w: invalid period format", interfaces.ErrConfiguration)

// Unit is a period unit
type Unit string

const (
	UnitDay    Unit = "day"
	UnitHour   Unit = "hour"
	UnitMinute Unit = "minute"
	UnitSecond Unit = "second"
)

// Duration returns the length of one unit
func (u Unit) Duration() time.Duration {
	switch u {
	case UnitDay:
		return 24 * time.Hour
	case UnitHour:
		return time.Hour
	case UnitMinute:
		return time.Minute
	case UnitSecond:
		return time.Second
	}
	return 0
}

// Period is a parsed (value, unit) pair such as "3 hours". Immutable once parsed.
type Period struct {
	Value int64
	Unit  Unit
}

var periodPattern = regexp.MustCompile(`(?i)^(\d+)\s*(days?|hours?|minutes?|seconds?)$`)

// ParsePeriod parses strings like "3 hours", "1 day", "45minutes".
// Matching is case-insensitive and ignores surrounding whitespace.
func ParsePeriod(text string) (Period, error) {
	m := periodPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriodFormat, text)
	}

	unit := Unit(strings.TrimSuffix(strings.ToLower(m[2]), "s"))

	value, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || value > math.MaxInt64/int64(unit.Duration()) {
		return Period{}, fmt.Errorf("%w: %q is out of range", ErrInvalidPeriodFormat, text)
	}

	return Period{Value: value, Unit: unit}, nil
}

// MustParsePeriod is ParsePeriod for compile-time constants; it panics on error.
func MustParsePeriod(text string) Period {
	p, err := ParsePeriod(text)
	if err != nil {
		panic(err)
	}
	return p
}

// Duration returns value * unit
func (p Period) Duration() time.Duration {
	return time.Duration(p.Value) * p.Unit.Duration()
}

// String renders the period in the same form ParsePeriod accepts
func (p Period) String() string {
	if p.Value == 1 {
		return fmt.Sprintf("%d %s", p.Value, p.Unit)
	}
	return fmt.Sprintf("%d %ss", p.Value, p.Unit)
}
