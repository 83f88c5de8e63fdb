package recurrence

import (
	"sort"
	"time"

	"github.com/mkoval/trecker/internal/dateutil"
)

// Occurrence is one concrete calendar date (plus nominal time-of-day) on
// which a rule is due. Day is canonical YYYY-MM-DD, Time is HH:MM.
type Occurrence struct {
	Day  string
	Time string
}

// Instant composes the occurrence into a single time value in loc.
func (o Occurrence) Instant(loc *time.Location) (time.Time, error) {
	day, err := dateutil.ParseDate(o.Day, loc)
	if err != nil {
		return time.Time{}, err
	}
	return dateutil.Combine(day, o.Time)
}

// dedupe removes entries sharing a canonical date and sorts chronologically.
// Near-boundary stepping has produced real duplicates before, so this runs on
// every generated series rather than being left to callers.
func dedupe(occs []Occurrence) []Occurrence {
	seen := make(map[string]bool, len(occs))
	out := occs[:0]
	for _, o := range occs {
		if seen[o.Day] {
			continue
		}
		seen[o.Day] = true
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}
