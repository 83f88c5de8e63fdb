package models

import (
	"time"

	"github.com/mkoval/trecker/internal/constants"
	"github.com/mkoval/trecker/internal/dateutil"
)

// Habit is one tracked habit instance. Date is the record's anchor date in
// canonical YYYY-MM-DD form; for materialized single-date instances it is the
// occurrence date and may differ from the owning rule's start date. The
// original rule is kept in a side mapping keyed by ID (see storage.Provider),
// which interval membership testing needs.
type Habit struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	Date                string    `json:"date"`
	Time                string    `json:"time"`
	Kind                Kind      `json:"kind"`
	CompletedDates      []string  `json:"completed_dates,omitempty"`
	Streak              int       `json:"streak"`
	BestStreak          int       `json:"best_streak"`
	TotalCompletions    int       `json:"total_completions"`
	NotificationEnabled bool      `json:"notification_enabled"`
	NotificationID      string    `json:"notification_id,omitempty"`
	SnoozeCount         int       `json:"snooze_count,omitempty"`
	Color               string    `json:"color,omitempty"`
	Priority            int       `json:"priority,omitempty"`
	Notes               string    `json:"notes,omitempty"`
	Category            string    `json:"category,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// CompletedOn reports whether the habit was completed on the given day
// (canonical form).
func (h *Habit) CompletedOn(day string) bool {
	for _, d := range h.CompletedDates {
		if d == day {
			return true
		}
	}
	return false
}

// DisplayTime returns the habit's time normalized to zero-padded HH:MM,
// falling back to the default for invalid values.
func (h *Habit) DisplayTime() string {
	return dateutil.FormatTimeForDisplay(h.Time)
}

// IsOverdue reports whether the habit's time of day has passed without a
// completion today. Whether the habit is due at all on now's date is the
// recurrence rule's call; stats.Overdue combines both.
func (h *Habit) IsOverdue(now time.Time) bool {
	today := dateutil.Canonical(now)
	if h.CompletedOn(today) {
		return false
	}
	due, err := dateutil.Combine(dateutil.Midnight(now), h.Time)
	if err != nil {
		return false
	}
	return due.Before(now)
}

// SetTime updates the habit's time-of-day; invalid values are rejected and
// the habit is left unchanged.
func (h *Habit) SetTime(t string) bool {
	if !dateutil.IsValidTime(t) {
		return false
	}
	h.Time = dateutil.FormatTimeForDisplay(t)
	h.Touch()
	return true
}

// SetName updates the habit's name; blank names are rejected.
func (h *Habit) SetName(name string) bool {
	if name == "" {
		return false
	}
	h.Name = name
	h.Touch()
	return true
}

// SetPriority clamps the priority into the valid range.
func (h *Habit) SetPriority(p int) {
	if p < constants.MinPriority {
		p = constants.MinPriority
	}
	if p > constants.MaxPriority {
		p = constants.MaxPriority
	}
	h.Priority = p
	h.Touch()
}

// Snooze bumps the snooze counter.
func (h *Habit) Snooze() {
	h.SnoozeCount++
	h.Touch()
}

// Touch bumps the updated-at stamp.
func (h *Habit) Touch() {
	h.UpdatedAt = time.Now()
}

// NextAnchor returns the next anchor date after the current one for the
// simple periodic kinds, or ok=false for kinds without a single obvious next
// date.
func (h *Habit) NextAnchor() (string, bool) {
	anchor, err := dateutil.ParseDate(h.Date, time.UTC)
	if err != nil {
		return "", false
	}
	switch h.Kind {
	case KindDaily:
		return dateutil.Canonical(anchor.AddDate(0, 0, 1)), true
	case KindWeekly:
		return dateutil.Canonical(anchor.AddDate(0, 0, 7)), true
	case KindMonthly:
		// Keep the anchor day, clamped to the next month's length, rather
		// than letting AddDate overflow Jan 31 into March.
		next := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location()).AddDate(0, 1, 0)
		day := anchor.Day()
		if last := next.AddDate(0, 1, -1).Day(); day > last {
			day = last
		}
		return dateutil.Canonical(time.Date(next.Year(), next.Month(), day, 0, 0, 0, 0, anchor.Location())), true
	default:
		return "", false
	}
}
