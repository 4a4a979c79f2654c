package timewindow

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // embedded zone database so user timezones resolve on minimal hosts

	"github.com/ternarybob/ipsa/internal/interfaces"
)

// ErrUnknownTimezone is returned for timezone names the zone database does not know
var ErrUnknownTimezone = fmt.Errorf("%w: unknown timezone", interfaces.ErrConfiguration)

// DefaultTimezone is the reference frame and the fallback for unusable user timezones
const DefaultTimezone = "UTC"

// TimestampLayout is the layout used for timestamps shown to users
const TimestampLayout = "2006-01-02 15:04:05"

// LoadLocation resolves an IANA timezone name. An empty name is unknown.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrUnknownTimezone)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, name)
	}
	return loc, nil
}

// ToReference interprets the wall clock of local in tz and returns the UTC instant.
// When local is already in tz its instant is returned unchanged; otherwise only
// its clock fields are used.
func ToReference(tz string, local time.Time) (time.Time, error) {
	loc, err := LoadLocation(tz)
	if err != nil {
		return time.Time{}, err
	}
	return toReference(loc, local), nil
}

// ToLocal returns ref as wall-clock time in tz
func ToLocal(tz string, ref time.Time) (time.Time, error) {
	loc, err := LoadLocation(tz)
	if err != nil {
		return time.Time{}, err
	}
	return ref.In(loc), nil
}

func toReference(loc *time.Location, local time.Time) time.Time {
	// A time already in loc carries its offset, which disambiguates
	// repeated wall-clock hours at DST fall-back
	if local.Location().String() == loc.String() {
		return local.UTC()
	}
	return time.Date(local.Year(), local.Month(), local.Day(),
		local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), loc).UTC()
}
