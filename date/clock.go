package date

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ClockFormat is the format used to read and write a Clock.
const ClockFormat = "15:04"

// Clock is a time of day with minute granularity, stored as minutes since midnight.
type Clock int

// NewClock returns the Clock for hour:minute. Out of range values wrap around the day.
func NewClock(hour, minute int) Clock {
	m := (hour*60 + minute) % (24 * 60)
	if m < 0 {
		m += 24 * 60
	}
	return Clock(m)
}

// ClockOf returns the Clock of t, truncated to the minute.
func ClockOf(t time.Time) Clock { return NewClock(t.Hour(), t.Minute()) }

// Hour returns the hour of the clock in [0, 23].
func (c Clock) Hour() int { return int(c) / 60 }

// Minute returns the minute of the clock in [0, 59].
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute()) }

// ParseClock parses "HH:MM". Single-digit hours are accepted.
func ParseClock(str string) (Clock, error) {
	t, err := time.Parse("15:4", strings.TrimSpace(str))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q want format %q: %w", str, ClockFormat, err)
	}
	return ClockOf(t), nil
}

// Stamp is the chronological key of a ledger event: a day and a time of day.
type Stamp struct {
	Date  Date
	Clock Clock
}

// At returns the Stamp for a day and a time of day.
func At(d Date, c Clock) Stamp { return Stamp{Date: d, Clock: c} }

// StampOf returns the Stamp of t.
func StampOf(t time.Time) Stamp { return Stamp{Date: Of(t), Clock: ClockOf(t)} }

// MustParseStamp parses "YYYY-MM-DD HH:MM" and panics on error.
func MustParseStamp(str string) Stamp {
	s, err := ParseStamp(str)
	if err != nil {
		panic(err.Error())
	}
	return s
}

// ParseStamp parses "YYYY-MM-DD HH:MM". The time part is optional and defaults to midnight.
func ParseStamp(str string) (Stamp, error) {
	day, clock, found := strings.Cut(strings.TrimSpace(str), " ")
	d, err := Parse(day)
	if err != nil {
		return Stamp{}, err
	}
	if !found {
		return At(d, 0), nil
	}
	c, err := ParseClock(clock)
	if err != nil {
		return Stamp{}, err
	}
	return At(d, c), nil
}

// Compare returns -1, 0 or +1 depending on whether s is before, equal to or after x.
func (s Stamp) Compare(x Stamp) int {
	if c := s.Date.Compare(x.Date); c != 0 {
		return c
	}
	switch {
	case s.Clock < x.Clock:
		return -1
	case s.Clock > x.Clock:
		return 1
	}
	return 0
}

// Before reports whether s is strictly before x.
func (s Stamp) Before(x Stamp) bool { return s.Compare(x) < 0 }

// After reports whether s is strictly after x.
func (s Stamp) After(x Stamp) bool { return s.Compare(x) > 0 }

// IsZero reports whether s is the zero Stamp.
func (s Stamp) IsZero() bool { return s == Stamp{} }

func (s Stamp) String() string { return s.Date.String() + " " + s.Clock.String() }

func (s Stamp) MarshalJSON() ([]byte, error) {
	str := s.String()
	return json.Marshal(&str)
}

func (s *Stamp) UnmarshalJSON(bytes []byte) error {
	var str string
	if err := json.Unmarshal(bytes, &str); err != nil {
		return err
	}
	v, err := ParseStamp(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

var _ json.Marshaler = (*Stamp)(nil)
var _ json.Unmarshaler = (*Stamp)(nil)
