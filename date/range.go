package date

import "fmt"

// Range represents a range of dates, boundaries included.
// A zero boundary leaves that side of the range open.
type Range struct{ From, To Date }

// NewRange returns the range [from, to].
func NewRange(from, to Date) Range { return Range{From: from, To: to} }

// ParseRange builds a Range from optional start and end strings.
func ParseRange(from, to string) (Range, error) {
	var r Range
	var err error
	if from != "" {
		if r.From, err = Parse(from); err != nil {
			return Range{}, fmt.Errorf("invalid range start: %w", err)
		}
	}
	if to != "" {
		if r.To, err = Parse(to); err != nil {
			return Range{}, fmt.Errorf("invalid range end: %w", err)
		}
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return Range{}, fmt.Errorf("invalid range: %s is before %s", r.To, r.From)
	}
	return r, nil
}

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(d Date) bool {
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To) {
		return false
	}
	return true
}

// IsOpen reports whether the range has no boundary at all.
func (r Range) IsOpen() bool { return r.From.IsZero() && r.To.IsZero() }

func (r Range) String() string {
	from, to := "…", "…"
	if !r.From.IsZero() {
		from = r.From.String()
	}
	if !r.To.IsZero() {
		to = r.To.String()
	}
	return from + " to " + to
}
