// Package ledger maintains per-habit completion state: the set of completed
// dates, the running streak counters, and derived statistics. Callers must
// serialize mutations of any one habit record; nothing here locks.
package ledger

import (
	"time"

	"github.com/mkoval/trecker/internal/dateutil"
	"github.com/mkoval/trecker/internal/models"
)

// Complete records a completion for the given date. Membership in the
// completed-date set is idempotent, but the streak and total counters
// increment on every call, including repeats on an already-completed date.
// That asymmetry is long-standing observed behavior that callers depend on;
// do not fold the counter bump inside the membership check.
func Complete(h *models.Habit, date time.Time) {
	day := dateutil.Canonical(date)
	if !h.CompletedOn(day) {
		h.CompletedDates = append(h.CompletedDates, day)
	}

	h.Streak++
	if h.Streak > h.BestStreak {
		h.BestStreak = h.Streak
	}
	h.TotalCompletions++
	h.Touch()
}

// Uncomplete retracts a completion for the given date. The streak and total
// counters are floored at zero; the best streak is never decreased.
func Uncomplete(h *models.Habit, date time.Time) {
	day := dateutil.Canonical(date)
	kept := h.CompletedDates[:0]
	for _, d := range h.CompletedDates {
		if d != day {
			kept = append(kept, d)
		}
	}
	h.CompletedDates = kept

	if h.Streak > 0 {
		h.Streak--
	}
	if h.TotalCompletions > 0 {
		h.TotalCompletions--
	}
	h.Touch()
}

// CompletionPercentage returns the integer percentage of days completed over
// the habit's active window: from its anchor date through its rule's end date,
// or through today when the rule is open-ended. Floor division.
func CompletionPercentage(h *models.Habit, rule models.Rule, now time.Time) int {
	start, err := dateutil.ParseDate(h.Date, now.Location())
	if err != nil {
		return 0
	}

	end := dateutil.Midnight(now)
	if e, ok := rule.End(); ok {
		end = e
	}

	totalDays := dateutil.DaysBetween(start, end) + 1
	if totalDays <= 0 {
		return 0
	}
	return len(h.CompletedDates) * 100 / totalDays
}
