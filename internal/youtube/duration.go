package youtube

import (
	"fmt"
	"time"

	"github.com/sosodev/duration"
)

// ParseISO8601Duration converts contentDetails.duration, e.g. "PT3M33S",
// to whole seconds. Live streams report "P0D". Negative durations and
// calendar components (years, months), which have no fixed length, are
// rejected.
func ParseISO8601Duration(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	d, err := duration.Parse(s)
	if err != nil || d.Negative || d.Years != 0 || d.Months != 0 {
		return 0, false
	}
	return int64(d.ToTimeDuration() / time.Second), true
}

// FormatDuration renders seconds as H:MM:SS, or M:SS under an hour.
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
