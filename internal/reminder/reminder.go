// Package reminder converts an occurrence's time-of-day plus an advance
// notice into the trigger time handed to the platform timer service. The
// timer itself is an external collaborator; this package only computes when
// it should fire.
package reminder

import (
	"time"

	"github.com/mkoval/trecker/internal/constants"
	"github.com/mkoval/trecker/internal/dateutil"
)

// Scheduler is the one-shot timer contract implemented by the platform
// notification layer. IDs are opaque; the core supplies the instant and the
// identifier and never touches the OS timer API.
type Scheduler interface {
	Schedule(id string, at time.Time) error
	Cancel(id string) error
}

// TriggerTime subtracts advanceMinutes from an HH:MM occurrence time,
// borrowing an hour when minutes go negative and wrapping the hour below 0
// back up to 23. This is pure modular arithmetic on the clock face: a
// reminder computed before midnight stays on the same calendar date, which is
// a known quirk kept for compatibility. Invalid input falls back to the
// default time.
func TriggerTime(occurrenceTime string, advanceMinutes int) string {
	if !dateutil.IsValidTime(occurrenceTime) {
		occurrenceTime = constants.DefaultTime
	}
	t, _ := time.Parse(constants.TimeFormat, dateutil.FormatTimeForDisplay(occurrenceTime))

	hour := t.Hour()
	minute := t.Minute() - advanceMinutes

	for minute < 0 {
		hour--
		minute += 60
	}
	for hour < 0 {
		hour += 24
	}
	hour %= 24

	return time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC).Format(constants.TimeFormat)
}

// TriggerInstant composes the absolute instant at which a reminder for the
// given occurrence date should fire, in loc.
func TriggerInstant(day string, occurrenceTime string, advanceMinutes int, loc *time.Location) (time.Time, error) {
	date, err := dateutil.ParseDate(day, loc)
	if err != nil {
		return time.Time{}, err
	}
	trigger := TriggerTime(occurrenceTime, advanceMinutes)
	return dateutil.Combine(date, trigger)
}
