package recurrence

import (
	"time"

	"github.com/mkoval/trecker/internal/dateutil"
	"github.com/mkoval/trecker/internal/models"
)

// IsOccurrence decides whether candidate is an occurrence of the rule without
// generating the series. It takes the full rule, never a bare anchor date:
// interval membership needs the rule's original start date, which a
// materialized record does not carry (the storage layer keeps the side
// mapping habit id -> rule for exactly this reason).
//
// Any date Generate emits for a rule satisfies IsOccurrence for that rule.
func IsOccurrence(rule models.Rule, candidate time.Time) bool {
	anchor := rule.Start()

	switch rule.Kind {
	case models.KindOnce, models.KindNever:
		return dateutil.SameDay(anchor, candidate)

	case models.KindDaily:
		return true

	case models.KindWeekly:
		return anchor.Weekday() == candidate.Weekday()

	case models.KindMonthly:
		return anchor.Day() == candidate.Day()

	case models.KindYearly:
		return anchor.Month() == candidate.Month() && anchor.Day() == candidate.Day()

	case models.KindWeekdays:
		wd := candidate.Weekday()
		return wd >= time.Monday && wd <= time.Friday

	case models.KindWeekends:
		wd := candidate.Weekday()
		return wd == time.Saturday || wd == time.Sunday

	case models.KindDaysOfWeek:
		// Empty set falls back to anchor-date equality. This is a documented
		// fallback, not a silent daily match.
		if len(rule.DaysOfWeek) == 0 {
			return dateutil.SameDay(anchor, candidate)
		}
		for _, d := range rule.DaysOfWeek {
			if candidate.Weekday() == d {
				return true
			}
		}
		return false

	case models.KindDaysOfMonth:
		if len(rule.DaysOfMonth) == 0 {
			return dateutil.SameDay(anchor, candidate)
		}
		for _, d := range rule.DaysOfMonth {
			if candidate.Day() == d {
				return true
			}
		}
		return false

	case models.KindInterval:
		return intervalMember(rule, anchor, candidate)

	default:
		return false
	}
}

// intervalMember tests whether the elapsed whole units between the rule's
// start date and the candidate land on an interval boundary.
func intervalMember(rule models.Rule, anchor, candidate time.Time) bool {
	count := rule.IntervalCount
	if count < 1 {
		return false
	}

	// Difference in one calendar frame. The anchor parses at UTC midnight
	// while candidates usually carry local wall-clock time; a raw
	// millisecond difference would under-count the elapsed days for part of
	// the day in any zone east of UTC.
	a := calendarDay(anchor)
	c := calendarDay(candidate)
	if c.Before(a) {
		return false
	}

	switch rule.IntervalUnit {
	case models.UnitDays:
		return dateutil.DaysBetween(a, c)%count == 0
	case models.UnitWeeks:
		return dateutil.DaysBetween(a, c)%(7*count) == 0
	case models.UnitMonths:
		return dateutil.MonthsBetween(a, c)%count == 0
	case models.UnitYears:
		return dateutil.YearsBetween(a, c)%count == 0
	default:
		return false
	}
}

// calendarDay maps an instant to UTC midnight of its calendar date,
// discarding zone and time-of-day.
func calendarDay(t time.Time) time.Time {
	d, err := dateutil.ParseDate(dateutil.Canonical(t), time.UTC)
	if err != nil {
		return dateutil.Midnight(t)
	}
	return d
}
