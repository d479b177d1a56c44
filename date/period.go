package date

import (
	"fmt"
	"strings"
	"time"
)

// Period is a calendar bucket used to group ledger entries.
type Period int

const (
	Daily Period = iota
	Weekly
	Monthly
	Quarterly
	Yearly
)

func (p Period) String() string {
	switch p {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Quarterly:
		return "quarterly"
	case Yearly:
		return "yearly"
	default:
		panic(fmt.Sprintf("unknown period %d", p))
	}
}

// ParsePeriod accepts both the adjective ("monthly") and the noun ("month").
func ParsePeriod(p string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "daily", "day":
		return Daily, nil
	case "weekly", "week":
		return Weekly, nil
	case "monthly", "month":
		return Monthly, nil
	case "quarterly", "quarter":
		return Quarterly, nil
	case "yearly", "year":
		return Yearly, nil
	default:
		return Daily, fmt.Errorf("unknown period %q", p)
	}
}

// Start returns the first day of the period containing d. Weeks start on Monday.
func (p Period) Start(d Date) Date {
	switch p {
	case Weekly:
		offset := (int(d.time().Weekday()) + 6) % 7
		return d.Add(-offset)
	case Monthly:
		return New(d.y, d.m, 1)
	case Quarterly:
		return New(d.y, d.m-(d.m-1)%3, 1)
	case Yearly:
		return New(d.y, time.January, 1)
	default:
		return d
	}
}

// Range returns the period containing d.
func (p Period) Range(d Date) Range {
	start := p.Start(d)
	switch p {
	case Weekly:
		return Range{From: start, To: start.Add(6)}
	case Monthly:
		return Range{From: start, To: New(start.y, start.m+1, 0)}
	case Quarterly:
		return Range{From: start, To: New(start.y, start.m+3, 0)}
	case Yearly:
		return Range{From: start, To: New(start.y, time.December, 31)}
	default:
		return Range{From: d, To: d}
	}
}

// Label names the period containing d: "2025-09-08", "2025-W37", "2025-09",
// "2025-Q3" or "2025".
func (p Period) Label(d Date) string {
	start := p.Start(d)
	switch p {
	case Weekly:
		year, week := start.time().ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case Monthly:
		return start.time().Format("2006-01")
	case Quarterly:
		return fmt.Sprintf("%d-Q%d", start.y, (start.m-1)/3+1)
	case Yearly:
		return fmt.Sprintf("%d", start.y)
	default:
		return start.String()
	}
}
