package stats

import (
	"errors"
	"fmt"
	"time"
)

// ErrConflictingFlags is returned when more than one period is selected.
var ErrConflictingFlags = errors.New("stats: choose only one of --all, --week, --month, --year or --from/--to")

// Rolling is the value of --month or --year given without an argument.
// It selects the last 30 or 365 days.
const Rolling = "rolling"

// PeriodFlags mirrors the stats command's period flags. Month and Year are
// nil when the flag was not given.
type PeriodFlags struct {
	All   bool
	Week  bool
	Month *string
	Year  *string
	From  string // YYYY-MM-DD, inclusive
	To    string // YYYY-MM-DD, exclusive
}

// Range is a half-open time interval [Start, End). A zero bound is open.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && !t.Before(r.End) {
		return false
	}
	return true
}

// Label describes the range for headings.
func (r Range) Label() string {
	const day = "2006-01-02"
	switch {
	case r.Start.IsZero() && r.End.IsZero():
		return "All Time"
	case r.End.IsZero():
		return "Since " + r.Start.Format(day)
	case r.Start.IsZero():
		return "Before " + r.End.Format(day)
	}
	return r.Start.Format(day) + " to " + r.End.Format(day)
}

// Days returns the length of a bounded range in days, or 0 when either
// side is open.
func (r Range) Days() float64 {
	if r.Start.IsZero() || r.End.IsZero() {
		return 0
	}
	return r.End.Sub(r.Start).Hours() / 24
}

// ParsePeriod turns the flags into a Range relative to now. Without any
// flag the range is the current calendar year.
func ParsePeriod(flags PeriodFlags, now time.Time) (Range, error) {
	now = now.UTC()

	selected := 0
	for _, set := range []bool{flags.All, flags.Week, flags.Month != nil, flags.Year != nil, flags.From != "" || flags.To != ""} {
		if set {
			selected++
		}
	}
	if selected > 1 {
		return Range{}, ErrConflictingFlags
	}

	switch {
	case flags.All:
		return Range{}, nil
	case flags.Week:
		return Range{Start: now.AddDate(0, 0, -7)}, nil
	case flags.Month != nil:
		return parseMonth(*flags.Month, now)
	case flags.Year != nil:
		return parseYear(*flags.Year, now)
	case flags.From != "" || flags.To != "":
		return parseCustom(flags.From, flags.To)
	}
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	return Range{Start: start, End: start.AddDate(1, 0, 0)}, nil
}

func parseMonth(value string, now time.Time) (Range, error) {
	if value == "" || value == Rolling {
		return Range{Start: now.AddDate(0, 0, -30)}, nil
	}
	start, err := time.Parse("2006-01", value)
	if err != nil {
		return Range{}, fmt.Errorf("stats: invalid month %q (use YYYY-MM)", value)
	}
	return Range{Start: start, End: start.AddDate(0, 1, 0)}, nil
}

func parseYear(value string, now time.Time) (Range, error) {
	if value == "" || value == Rolling {
		return Range{Start: now.AddDate(0, 0, -365)}, nil
	}
	start, err := time.Parse("2006", value)
	if err != nil {
		return Range{}, fmt.Errorf("stats: invalid year %q (use YYYY)", value)
	}
	return Range{Start: start, End: start.AddDate(1, 0, 0)}, nil
}

func parseCustom(from, to string) (Range, error) {
	var r Range
	if from != "" {
		t, err := time.Parse(time.DateOnly, from)
		if err != nil {
			return Range{}, fmt.Errorf("stats: invalid --from date %q (use YYYY-MM-DD)", from)
		}
		r.Start = t
	}
	if to != "" {
		t, err := time.Parse(time.DateOnly, to)
		if err != nil {
			return Range{}, fmt.Errorf("stats: invalid --to date %q (use YYYY-MM-DD)", to)
		}
		r.End = t
	}
	if !r.Start.IsZero() && !r.End.IsZero() && !r.Start.Before(r.End) {
		return Range{}, fmt.Errorf("stats: --from %s must be before --to %s", from, to)
	}
	return r, nil
}
