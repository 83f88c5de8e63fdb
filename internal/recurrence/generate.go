package recurrence

import (
	"time"

	"github.com/mkoval/trecker/internal/constants"
	"github.com/mkoval/trecker/internal/models"
)

// Generate produces the finite, deduplicated, chronologically ordered series
// of occurrences for a rule. The end date is an inclusive upper bound; rules
// without one are truncated at a per-kind cap instead of erroring. Reaching a
// cap is silent; callers wanting more regenerate from a later anchor.
func Generate(rule models.Rule) ([]Occurrence, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	start := rule.Start()
	end, hasEnd := rule.End()
	tod := rule.NominalTime()

	within := func(day time.Time) bool {
		return !hasEnd || !day.After(end)
	}

	var occs []Occurrence
	emit := func(day time.Time) {
		occs = append(occs, Occurrence{Day: day.Format(constants.DateFormat), Time: tod})
	}

	switch rule.Kind {
	case models.KindOnce:
		emit(start)

	case models.KindDaily:
		day := start
		for i := 0; i < constants.MaxDailyOccurrences && within(day); i++ {
			emit(day)
			day = day.AddDate(0, 0, 1)
		}

	case models.KindWeekly:
		days := effectiveWeekdays(rule, start)
		weekStart := start.AddDate(0, 0, -mondayOffset(start.Weekday()))
		for w := 0; w < constants.MaxWeeklyWeeks; w++ {
			for d := 0; d < 7; d++ {
				day := weekStart.AddDate(0, 0, w*7+d)
				if !days[day.Weekday()] || day.Before(start) || !within(day) {
					continue
				}
				emit(day)
				if len(occs) >= constants.MaxGeneratedOccurrences {
					return dedupe(occs), nil
				}
			}
			if hasEnd && weekStart.AddDate(0, 0, w*7).After(end) {
				break
			}
		}

	case models.KindMonthly:
		days := rule.DaysOfMonth
		if len(days) == 0 {
			days = []int{start.Day()}
		}
		for m := 0; m < constants.MaxMonthlyMonths; m++ {
			monthStart := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location()).AddDate(0, m, 0)
			for _, d := range days {
				day := clampToMonth(monthStart, d)
				if day.Before(start) || !within(day) {
					continue
				}
				emit(day)
				if len(occs) >= constants.MaxGeneratedOccurrences {
					return dedupe(occs), nil
				}
			}
		}

	case models.KindYearly:
		for y := 0; y < constants.MaxYearlyOccurrences; y++ {
			monthStart := time.Date(start.Year()+y, start.Month(), 1, 0, 0, 0, 0, start.Location())
			day := clampToMonth(monthStart, start.Day())
			if !within(day) {
				break
			}
			emit(day)
		}

	case models.KindInterval:
		limit := constants.MaxIntervalOccurrences
		if rule.IntervalUnit == models.UnitYears {
			limit = constants.MaxYearlyIntervalOccurrences
		}
		for i := 0; i < limit; i++ {
			day := intervalStep(start, rule.IntervalUnit, rule.IntervalCount*i)
			if !within(day) {
				break
			}
			emit(day)
		}

	case models.KindWeekdays, models.KindWeekends:
		day := start
		for i := 0; i < constants.MaxScanDays && within(day); i++ {
			wd := day.Weekday()
			weekend := wd == time.Saturday || wd == time.Sunday
			if (rule.Kind == models.KindWeekends) == weekend {
				emit(day)
			}
			day = day.AddDate(0, 0, 1)
		}

	case models.KindDaysOfWeek:
		// An empty day set yields an empty series on purpose; it must not
		// silently fall back to daily.
		if len(rule.DaysOfWeek) == 0 {
			return []Occurrence{}, nil
		}
		days := weekdaySet(rule.DaysOfWeek)
		day := start
		for i := 0; i < constants.MaxScanDays && within(day); i++ {
			if days[day.Weekday()] {
				emit(day)
			}
			day = day.AddDate(0, 0, 1)
		}

	case models.KindDaysOfMonth:
		if len(rule.DaysOfMonth) == 0 {
			return []Occurrence{}, nil
		}
		wanted := make(map[int]bool, len(rule.DaysOfMonth))
		for _, d := range rule.DaysOfMonth {
			wanted[d] = true
		}
		day := start
		for i := 0; i < constants.MaxScanDays && within(day); i++ {
			if wanted[day.Day()] {
				emit(day)
			}
			day = day.AddDate(0, 0, 1)
		}
	}

	return dedupe(occs), nil
}

// effectiveWeekdays returns the weekly rule's day set, defaulting to the
// start date's weekday when none are configured.
func effectiveWeekdays(rule models.Rule, start time.Time) map[time.Weekday]bool {
	if len(rule.DaysOfWeek) == 0 {
		return map[time.Weekday]bool{start.Weekday(): true}
	}
	return weekdaySet(rule.DaysOfWeek)
}

func weekdaySet(days []time.Weekday) map[time.Weekday]bool {
	set := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		set[d] = true
	}
	return set
}

// mondayOffset returns the number of days since the most recent Monday.
func mondayOffset(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// clampToMonth returns the given day-of-month within monthStart's month,
// clamped to the month's actual last day (day 31 in February becomes the
// 28th or 29th).
func clampToMonth(monthStart time.Time, day int) time.Time {
	last := monthStart.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(monthStart.Year(), monthStart.Month(), day, 0, 0, 0, 0, monthStart.Location())
}

// intervalStep advances the anchor by n units. Days and weeks use fixed day
// counts; months and years use calendar increments against the original
// anchor day so variable month lengths never drift the series.
func intervalStep(anchor time.Time, unit models.IntervalUnit, n int) time.Time {
	switch unit {
	case models.UnitDays:
		return anchor.AddDate(0, 0, n)
	case models.UnitWeeks:
		return anchor.AddDate(0, 0, n*7)
	case models.UnitMonths:
		monthStart := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location()).AddDate(0, n, 0)
		return clampToMonth(monthStart, anchor.Day())
	case models.UnitYears:
		monthStart := time.Date(anchor.Year()+n, anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
		return clampToMonth(monthStart, anchor.Day())
	default:
		return anchor.AddDate(0, 0, n)
	}
}
