package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/mkoval/trecker/internal/constants"
	"github.com/mkoval/trecker/internal/dateutil"
)

// Kind identifies a recurrence pattern. The generator and predicate both
// switch exhaustively over this set, so a new kind cannot be wired into one
// without the other.
type Kind string

const (
	KindOnce        Kind = "once"
	KindDaily       Kind = "daily"
	KindWeekly      Kind = "weekly"
	KindMonthly     Kind = "monthly"
	KindYearly      Kind = "yearly"
	KindInterval    Kind = "custom-interval"
	KindWeekdays    Kind = "weekdays"
	KindWeekends    Kind = "weekends"
	KindDaysOfWeek  Kind = "days-of-week"
	KindDaysOfMonth Kind = "days-of-month"

	// KindNever is a deprecated serialization alias for KindOnce, kept so old
	// stored rules still load. Normalize() rewrites it.
	KindNever Kind = "never"
)

// IntervalUnit is the stepping unit for KindInterval rules.
type IntervalUnit string

const (
	UnitDays   IntervalUnit = "days"
	UnitWeeks  IntervalUnit = "weeks"
	UnitMonths IntervalUnit = "months"
	UnitYears  IntervalUnit = "years"
)

var (
	// ErrInvalidRuleConfiguration is the base error for rules rejected at
	// construction time, before any generation runs.
	ErrInvalidRuleConfiguration = errors.New("invalid rule configuration")
)

// Rule describes a recurrence pattern. StartDate is the anchor for all
// periodic arithmetic; EndDate, when set, is an inclusive upper bound on
// generated occurrences. Dates use the canonical YYYY-MM-DD form and Time
// uses HH:MM.
type Rule struct {
	Kind          Kind           `json:"kind"`
	StartDate     string         `json:"start_date"`
	EndDate       string         `json:"end_date,omitempty"`
	Time          string         `json:"time,omitempty"`
	IntervalCount int            `json:"interval_count,omitempty"`
	IntervalUnit  IntervalUnit   `json:"interval_unit,omitempty"`
	DaysOfWeek    []time.Weekday `json:"days_of_week,omitempty"`
	DaysOfMonth   []int          `json:"days_of_month,omitempty"`
}

// Normalize rewrites deprecated fields to their current forms. Called at load
// time by the storage layer.
func (r *Rule) Normalize() {
	if r.Kind == KindNever {
		r.Kind = KindOnce
	}
	if r.Kind == KindInterval && r.IntervalUnit == "" {
		r.IntervalUnit = UnitDays
	}
}

// Validate rejects malformed rules before any generation runs. All returned
// errors wrap ErrInvalidRuleConfiguration.
func (r Rule) Validate() error {
	switch r.Kind {
	case KindOnce, KindDaily, KindWeekly, KindMonthly, KindYearly,
		KindInterval, KindWeekdays, KindWeekends, KindDaysOfWeek, KindDaysOfMonth:
	case KindNever:
		return fmt.Errorf("%w: kind %q must be normalized before use", ErrInvalidRuleConfiguration, r.Kind)
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRuleConfiguration, r.Kind)
	}

	start, err := dateutil.ParseDate(r.StartDate, time.UTC)
	if err != nil {
		return fmt.Errorf("%w: start date %q", ErrInvalidRuleConfiguration, r.StartDate)
	}

	if r.EndDate != "" {
		end, err := dateutil.ParseDate(r.EndDate, time.UTC)
		if err != nil {
			return fmt.Errorf("%w: end date %q", ErrInvalidRuleConfiguration, r.EndDate)
		}
		if end.Before(start) {
			return fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidRuleConfiguration, r.EndDate, r.StartDate)
		}
	}

	if r.Kind == KindInterval {
		if r.IntervalCount < 1 {
			return fmt.Errorf("%w: interval count must be at least 1, got %d", ErrInvalidRuleConfiguration, r.IntervalCount)
		}
		switch r.IntervalUnit {
		case UnitDays, UnitWeeks, UnitMonths, UnitYears:
		default:
			return fmt.Errorf("%w: unknown interval unit %q", ErrInvalidRuleConfiguration, r.IntervalUnit)
		}
	}

	for _, d := range r.DaysOfMonth {
		if d < 1 || d > 31 {
			return fmt.Errorf("%w: day of month %d out of range [1,31]", ErrInvalidRuleConfiguration, d)
		}
	}

	for _, wd := range r.DaysOfWeek {
		if wd < time.Sunday || wd > time.Saturday {
			return fmt.Errorf("%w: invalid weekday %d", ErrInvalidRuleConfiguration, int(wd))
		}
	}

	if r.Time != "" && !dateutil.IsValidTime(r.Time) {
		return fmt.Errorf("%w: time %q", ErrInvalidRuleConfiguration, r.Time)
	}

	return nil
}

// Start parses the anchor date. Validate first; this panics on garbage only
// through the zero value it returns.
func (r Rule) Start() time.Time {
	t, _ := dateutil.ParseDate(r.StartDate, time.UTC)
	return t
}

// End parses the end date, returning ok=false when no end is set.
func (r Rule) End() (time.Time, bool) {
	if r.EndDate == "" {
		return time.Time{}, false
	}
	t, err := dateutil.ParseDate(r.EndDate, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NominalTime returns the rule's time-of-day, defaulting when unset or invalid.
func (r Rule) NominalTime() string {
	if dateutil.IsValidTime(r.Time) {
		return dateutil.FormatTimeForDisplay(r.Time)
	}
	return constants.DefaultTime
}

// Describe returns a short human-readable description of the pattern.
func (r Rule) Describe() string {
	switch r.Kind {
	case KindOnce:
		return fmt.Sprintf("once on %s", r.StartDate)
	case KindDaily:
		return "daily"
	case KindWeekly:
		return "weekly"
	case KindMonthly:
		return "monthly"
	case KindYearly:
		return "yearly"
	case KindInterval:
		if r.IntervalCount == 1 {
			return fmt.Sprintf("every %s", singularUnit(r.IntervalUnit))
		}
		return fmt.Sprintf("every %d %s", r.IntervalCount, r.IntervalUnit)
	case KindWeekdays:
		return "weekdays"
	case KindWeekends:
		return "weekends"
	case KindDaysOfWeek:
		return fmt.Sprintf("on %s", weekdayNames(r.DaysOfWeek))
	case KindDaysOfMonth:
		return fmt.Sprintf("on month days %v", r.DaysOfMonth)
	default:
		return string(r.Kind)
	}
}

func singularUnit(u IntervalUnit) string {
	switch u {
	case UnitDays:
		return "day"
	case UnitWeeks:
		return "week"
	case UnitMonths:
		return "month"
	case UnitYears:
		return "year"
	default:
		return string(u)
	}
}

func weekdayNames(days []time.Weekday) string {
	if len(days) == 0 {
		return "no days"
	}
	out := ""
	for i, d := range days {
		if i > 0 {
			out += ","
		}
		out += d.String()[:3]
	}
	return out
}
