package stats

import (
	"errors"
	"testing"
	"time"
)

func ptr(s string) *string { return &s }

var now = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name      string
		flags     PeriodFlags
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"default is current year", PeriodFlags{}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"all", PeriodFlags{All: true}, time.Time{}, time.Time{}},
		{"week", PeriodFlags{Week: true}, now.AddDate(0, 0, -7), time.Time{}},
		{"rolling month", PeriodFlags{Month: ptr("")}, now.AddDate(0, 0, -30), time.Time{}},
		{"rolling month sentinel", PeriodFlags{Month: ptr(Rolling)}, now.AddDate(0, 0, -30), time.Time{}},
		{"specific month", PeriodFlags{Month: ptr("2025-12")}, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"rolling year", PeriodFlags{Year: ptr("")}, now.AddDate(0, 0, -365), time.Time{}},
		{"specific year", PeriodFlags{Year: ptr("2024")}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"from only", PeriodFlags{From: "2026-02-01"}, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), time.Time{}},
		{"from and to", PeriodFlags{From: "2026-02-01", To: "2026-03-01"}, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePeriod(tt.flags, now)
			if err != nil {
				t.Fatalf("ParsePeriod() error = %v", err)
			}
			if !got.Start.Equal(tt.wantStart) || !got.End.Equal(tt.wantEnd) {
				t.Errorf("ParsePeriod() = [%v, %v), want [%v, %v)", got.Start, got.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParsePeriod_Conflicts(t *testing.T) {
	conflicts := []PeriodFlags{
		{Week: true, Month: ptr("")},
		{Month: ptr("2026-01"), Year: ptr("2026")},
		{Week: true, From: "2026-01-01"},
		{All: true, Year: ptr("")},
		{Year: ptr(""), To: "2026-01-01"},
	}
	for _, flags := range conflicts {
		if _, err := ParsePeriod(flags, now); !errors.Is(err, ErrConflictingFlags) {
			t.Errorf("ParsePeriod(%+v) error = %v, want ErrConflictingFlags", flags, err)
		}
	}
}

func TestParsePeriod_InvalidValues(t *testing.T) {
	invalid := []PeriodFlags{
		{Month: ptr("2026-13")},
		{Month: ptr("June")},
		{Year: ptr("26")},
		{From: "01/02/2026"},
		{From: "2026-03-01", To: "2026-02-01"},
	}
	for _, flags := range invalid {
		if _, err := ParsePeriod(flags, now); err == nil {
			t.Errorf("ParsePeriod(%+v) error = nil, want error", flags)
		}
	}
}

func TestRange_ContainsAndLabel(t *testing.T) {
	r := Range{Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)}
	if !r.Contains(r.Start) {
		t.Error("Contains(start) = false, want inclusive start")
	}
	if r.Contains(r.End) {
		t.Error("Contains(end) = true, want exclusive end")
	}
	if got := r.Label(); got != "2026-01-01 to 2026-02-01" {
		t.Errorf("Label() = %q", got)
	}
	if got := (Range{}).Label(); got != "All Time" {
		t.Errorf("Label() = %q, want All Time", got)
	}
	if got := r.Days(); got != 31 {
		t.Errorf("Days() = %v, want 31", got)
	}
}
