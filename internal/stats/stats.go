// Package stats derives aggregate habit statistics for the presentation
// layer: daily progress, all-habit streaks, and completion summaries.
package stats

import (
	"time"

	"github.com/mkoval/trecker/internal/constants"
	"github.com/mkoval/trecker/internal/dateutil"
	"github.com/mkoval/trecker/internal/models"
	"github.com/mkoval/trecker/internal/recurrence"
)

// Summary is the roll-up shown by the stats command.
type Summary struct {
	TotalHabits      int
	DueToday         int
	CompletedToday   int
	Overdue          int
	CompletionRate   int // percent of today's due habits completed
	CurrentStreak    int // consecutive days, ending today, with every due habit done
	BestStreak       int // best per-habit streak across all habits
	TotalCompletions int
}

// Progress is one day's completed/total counts.
type Progress struct {
	Completed int
	Total     int
}

// EffectiveRule resolves the rule to test a record against. The side mapping
// carries the original rules; interval rules keep their own anchor (the
// elapsed-units test needs the true start date), every other kind is
// re-anchored on the record's date. Records without a stored rule fall back
// to the fields they carry themselves.
func EffectiveRule(h models.Habit, rules map[int64]models.Rule) models.Rule {
	r, ok := rules[h.ID]
	if !ok {
		r = models.Rule{Kind: h.Kind, StartDate: h.Date, Time: h.Time}
	}
	r.Normalize()
	if r.Kind != models.KindInterval {
		r.StartDate = h.Date
	}
	return r
}

// DueOn reports whether the habit is due on the given date.
func DueOn(h models.Habit, rules map[int64]models.Rule, date time.Time) bool {
	return recurrence.IsOccurrence(EffectiveRule(h, rules), date)
}

// Overdue reports whether the habit is due on now's date, its time of day
// has passed, and it has not been completed.
func Overdue(h models.Habit, rules map[int64]models.Rule, now time.Time) bool {
	return DueOn(h, rules, now) && h.IsOverdue(now)
}

// ProgressOn returns the completed/total counts for one day.
func ProgressOn(habits []models.Habit, rules map[int64]models.Rule, date time.Time) Progress {
	day := dateutil.Canonical(date)
	var p Progress
	for i := range habits {
		if !DueOn(habits[i], rules, date) {
			continue
		}
		p.Total++
		if habits[i].CompletedOn(day) {
			p.Completed++
		}
	}
	return p
}

// CurrentStreak walks backwards from today, counting consecutive days on
// which every due habit was completed. The walk stops at the first day with
// nothing due or anything missed, and is bounded by the daily generation
// horizon so an all-complete history cannot loop forever.
func CurrentStreak(habits []models.Habit, rules map[int64]models.Rule, now time.Time) int {
	streak := 0
	day := dateutil.Midnight(now)
	for i := 0; i < constants.MaxScanDays; i++ {
		p := ProgressOn(habits, rules, day)
		if p.Total == 0 || p.Completed < p.Total {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// Summarize builds the aggregate summary for the given instant.
func Summarize(habits []models.Habit, rules map[int64]models.Rule, now time.Time) Summary {
	s := Summary{TotalHabits: len(habits)}
	today := dateutil.Canonical(now)

	for i := range habits {
		h := &habits[i]
		if h.BestStreak > s.BestStreak {
			s.BestStreak = h.BestStreak
		}
		s.TotalCompletions += h.TotalCompletions
		if Overdue(*h, rules, now) {
			s.Overdue++
		}
		if DueOn(*h, rules, now) {
			s.DueToday++
			if h.CompletedOn(today) {
				s.CompletedToday++
			}
		}
	}

	if s.DueToday > 0 {
		s.CompletionRate = s.CompletedToday * 100 / s.DueToday
	}
	s.CurrentStreak = CurrentStreak(habits, rules, now)
	return s
}
