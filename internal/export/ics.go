// Package export renders habits as an iCalendar feed so other calendar apps
// can subscribe to them.
package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/mkoval/trecker/internal/constants"
	"github.com/mkoval/trecker/internal/dateutil"
	"github.com/mkoval/trecker/internal/models"
	"github.com/mkoval/trecker/internal/reminder"
)

// Calendar serializes the habits into a VCALENDAR document. Each habit
// becomes one VEVENT anchored on its rule's start date, with an RRULE
// describing the repetition. Habits without a stored rule export as single
// events on their own date.
func Calendar(habits []models.Habit, rules map[int64]models.Rule, loc *time.Location) (string, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName(constants.AppName)

	now := time.Now()
	for i := range habits {
		h := &habits[i]
		rule, ok := rules[h.ID]
		if !ok {
			rule = models.Rule{Kind: h.Kind, StartDate: h.Date, Time: h.Time}
		}
		rule.Normalize()

		start, err := reminder.TriggerInstant(rule.StartDate, rule.NominalTime(), 0, loc)
		if err != nil {
			return "", fmt.Errorf("habit %d has an invalid start date %q: %w", h.ID, rule.StartDate, err)
		}

		event := cal.AddEvent(fmt.Sprintf("habit-%d@%s", h.ID, constants.AppName))
		event.SetCreatedTime(h.CreatedAt)
		event.SetDtStampTime(now)
		event.SetStartAt(start)
		event.SetEndAt(start.Add(30 * time.Minute))
		event.SetSummary(h.Name)
		if h.Notes != "" {
			event.SetDescription(h.Notes)
		}

		rr, err := ruleString(rule, start, loc)
		if err != nil {
			return "", fmt.Errorf("habit %d: %w", h.ID, err)
		}
		if rr != "" {
			event.AddRrule(rr)
		}
	}

	return cal.Serialize(), nil
}

// ruleString maps a recurrence rule onto an RFC 5545 RRULE value. One-shot
// rules return an empty string.
func ruleString(rule models.Rule, start time.Time, loc *time.Location) (string, error) {
	opt := rrule.ROption{Dtstart: start}

	switch rule.Kind {
	case models.KindOnce:
		return "", nil
	case models.KindDaily:
		opt.Freq = rrule.DAILY
	case models.KindWeekly:
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = toRRuleWeekdays(rule.DaysOfWeek, start.Weekday())
	case models.KindMonthly:
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday = []int{start.Day()}
	case models.KindYearly:
		opt.Freq = rrule.YEARLY
	case models.KindWeekdays:
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR}
	case models.KindWeekends:
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = []rrule.Weekday{rrule.SA, rrule.SU}
	case models.KindDaysOfWeek:
		if len(rule.DaysOfWeek) == 0 {
			return "", nil
		}
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = toRRuleWeekdays(rule.DaysOfWeek, start.Weekday())
	case models.KindDaysOfMonth:
		if len(rule.DaysOfMonth) == 0 {
			return "", nil
		}
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday = rule.DaysOfMonth
	case models.KindInterval:
		opt.Interval = rule.IntervalCount
		switch rule.IntervalUnit {
		case models.UnitDays:
			opt.Freq = rrule.DAILY
		case models.UnitWeeks:
			opt.Freq = rrule.WEEKLY
		case models.UnitMonths:
			opt.Freq = rrule.MONTHLY
		case models.UnitYears:
			opt.Freq = rrule.YEARLY
		default:
			return "", fmt.Errorf("unknown interval unit %q", rule.IntervalUnit)
		}
	default:
		return "", fmt.Errorf("unknown rule kind %q", rule.Kind)
	}

	if rule.EndDate != "" {
		end, err := dateutil.ParseDate(rule.EndDate, loc)
		if err != nil {
			return "", fmt.Errorf("invalid end date %q: %w", rule.EndDate, err)
		}
		// End dates are inclusive, so the rule runs through the last minute
		// of that day.
		opt.Until = end.Add(24*time.Hour - time.Second)
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return "", fmt.Errorf("failed to build rrule: %w", err)
	}
	return r.OrigOptions.RRuleString(), nil
}

func toRRuleWeekdays(days []time.Weekday, fallback time.Weekday) []rrule.Weekday {
	if len(days) == 0 {
		days = []time.Weekday{fallback}
	}
	mapping := map[time.Weekday]rrule.Weekday{
		time.Sunday:    rrule.SU,
		time.Monday:    rrule.MO,
		time.Tuesday:   rrule.TU,
		time.Wednesday: rrule.WE,
		time.Thursday:  rrule.TH,
		time.Friday:    rrule.FR,
		time.Saturday:  rrule.SA,
	}
	out := make([]rrule.Weekday, 0, len(days))
	for _, d := range days {
		out = append(out, mapping[d])
	}
	return out
}
