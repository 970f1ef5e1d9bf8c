// Package daykey turns dates into canonical calendar-day keys (YYYY-MM-DD).
//
// A key always names a day in one explicit location: the request origin's
// zone. The same instant yields different keys in different zones, which is
// why every Normalizer is bound to a *time.Location and never falls back to
// UTC.
package daykey

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/routinely/internal/constants"
)

// Key is a calendar day in YYYY-MM-DD form.
type Key string

func (k Key) String() string { return string(k) }

// Weekday returns the day of week the key denotes.
func (k Key) Weekday() time.Weekday {
	t, err := time.Parse(constants.DateFormat, string(k))
	if err != nil {
		return time.Sunday
	}
	return t.Weekday()
}

// Parse validates s as a YYYY-MM-DD key.
func Parse(s string) (Key, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	// time.Parse accepts some non-canonical forms; re-format to be sure the
	// key is the one that will be compared.
	if t.Format(constants.DateFormat) != s {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return Key(s), nil
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == constants.LocalTimezone {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return loc, nil
}

// LocalName returns the IANA name of the process zone, taken from TZ or the
// /etc/localtime zoneinfo link. ok is false when neither names a zone.
func LocalName() (name string, ok bool) {
	return localName(os.Getenv, os.Readlink)
}

func localName(getenv func(string) string, readlink func(string) (string, error)) (string, bool) {
	if tz := strings.TrimPrefix(getenv("TZ"), ":"); tz != "" && tz != constants.LocalTimezone {
		if _, err := time.LoadLocation(tz); err == nil {
			return tz, true
		}
	}
	target, err := readlink("/etc/localtime")
	if err != nil {
		return "", false
	}
	const marker = "zoneinfo/"
	i := strings.LastIndex(target, marker)
	if i < 0 {
		return "", false
	}
	name := target[i+len(marker):]
	if _, err := time.LoadLocation(name); err != nil {
		return "", false
	}
	return name, true
}

// ResolveName replaces "Local" and "" with the process zone's IANA name
// when it can be found. Other names are returned unchanged.
func ResolveName(timezone string) string {
	if timezone != "" && timezone != constants.LocalTimezone {
		return timezone
	}
	if name, ok := LocalName(); ok {
		return name
	}
	return constants.LocalTimezone
}

// Name returns the IANA name of loc, resolving the process zone.
func Name(loc *time.Location) string {
	if loc == nil || loc == time.Local {
		return ResolveName(constants.LocalTimezone)
	}
	return loc.String()
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}

// Normalizer maps date-like values to keys in a fixed location.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer returns a Normalizer for loc. A nil loc means time.Local.
func NewNormalizer(loc *time.Location) Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return Normalizer{loc: loc}
}

// Location returns the zone keys are computed in.
func (n Normalizer) Location() *time.Location {
	if n.loc == nil {
		return time.Local
	}
	return n.loc
}

// FromTime returns the key of the calendar day t falls on in the
// normalizer's location.
func (n Normalizer) FromTime(t time.Time) Key {
	return Key(t.In(n.Location()).Format(constants.DateFormat))
}

// Today returns the key for now.
func (n Normalizer) Today(now time.Time) Key {
	return n.FromTime(now)
}

// Normalize accepts a Key, a YYYY-MM-DD string, an RFC3339 string, a
// time.Time or a *time.Time.
func (n Normalizer) Normalize(v interface{}) (Key, error) {
	switch d := v.(type) {
	case Key:
		return Parse(string(d))
	case string:
		if k, err := Parse(d); err == nil {
			return k, nil
		}
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(d))
		if err != nil {
			return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD or RFC3339)", d)
		}
		return n.FromTime(t), nil
	case time.Time:
		if d.IsZero() {
			return "", fmt.Errorf("zero time has no calendar day")
		}
		return n.FromTime(d), nil
	case *time.Time:
		if d == nil {
			return "", fmt.Errorf("nil time has no calendar day")
		}
		return n.Normalize(*d)
	default:
		return "", fmt.Errorf("unsupported date value of type %T", v)
	}
}

// Midnight returns the first instant of day k in the normalizer's location.
// This is the value stored in a task's completion history.
func (n Normalizer) Midnight(k Key) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, string(k))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", k)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, n.Location()), nil
}

// AddDays returns the key d days after k. Calendar arithmetic is done on
// the date alone so DST transitions never skip or repeat a day.
func AddDays(k Key, d int) (Key, error) {
	t, err := time.Parse(constants.DateFormat, string(k))
	if err != nil {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", k)
	}
	return Key(t.AddDate(0, 0, d).Format(constants.DateFormat)), nil
}
