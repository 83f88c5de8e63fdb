package dateutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mkoval/trecker/internal/constants"
)

// ErrInvalidTimeFormat is returned when a time string is not a valid HH:MM value.
// Callers recover by substituting constants.DefaultTime.
var ErrInvalidTimeFormat = errors.New("invalid time format (expected HH:MM)")

const dayMillis = 24 * 60 * 60 * 1000

// DaysBetween returns the whole-day difference between two instants, always
// non-negative. The difference is computed from absolute milliseconds, not
// calendar days, so DST transitions can shift the result by a day. This
// matches how completion windows have always been counted; normalize both
// arguments with Midnight first when calendar-day semantics are needed.
func DaysBetween(a, b time.Time) int {
	diff := b.UnixMilli() - a.UnixMilli()
	if diff < 0 {
		diff = -diff
	}
	return int(diff / dayMillis)
}

// MonthsBetween returns the whole-month difference (b - a), sign-preserving.
// Day-of-month is ignored: Jan 31 to Feb 1 is one month.
func MonthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// YearsBetween returns the year difference (b - a), sign-preserving.
func YearsBetween(a, b time.Time) int {
	return b.Year() - a.Year()
}

// Midnight returns t with the time-of-day zeroed, preserving the location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two instants fall on the same calendar day.
// Comparison uses the canonical date string rather than epoch truncation, so
// it is stable across time-of-day and DST artifacts.
func SameDay(a, b time.Time) bool {
	return a.Format(constants.DateFormat) == b.Format(constants.DateFormat)
}

// Canonical returns the canonical YYYY-MM-DD form of t.
func Canonical(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// ParseDate parses a canonical YYYY-MM-DD date at midnight in the given location.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %w", err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}

// AddDays returns t shifted by the given number of calendar days.
func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// LastDayOfMonth returns the number of days in t's month.
func LastDayOfMonth(t time.Time) int {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1).Day()
}

// IsValidTime reports whether s is a valid HH:MM time: exactly two numeric
// fields, hours 0..23 and minutes 0..59. Unpadded values like "9:05" are
// accepted; anything else is rejected rather than coerced.
func IsValidTime(s string) bool {
	_, _, err := splitTime(s)
	return err == nil
}

// Combine composes a calendar date and an HH:MM time string into a single
// instant in date's location. A malformed time yields ErrInvalidTimeFormat;
// the caller substitutes constants.DefaultTime.
func Combine(date time.Time, timeStr string) (time.Time, error) {
	hours, minutes, err := splitTime(timeStr)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hours, minutes, 0, 0, date.Location()), nil
}

// CompareTimes compares two HH:MM strings, returning a negative value when
// t1 is earlier, positive when later, zero when equal or unparseable.
func CompareTimes(t1, t2 string) int {
	h1, m1, err := splitTime(t1)
	if err != nil {
		return 0
	}
	h2, m2, err := splitTime(t2)
	if err != nil {
		return 0
	}
	if h1 != h2 {
		return h1 - h2
	}
	return m1 - m2
}

// FormatTimeForDisplay normalizes a time string to zero-padded HH:MM,
// substituting the default when invalid.
func FormatTimeForDisplay(s string) string {
	hours, minutes, err := splitTime(s)
	if err != nil {
		return constants.DefaultTime
	}
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

func splitTime(s string) (int, int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, ErrInvalidTimeFormat
	}
	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, ErrInvalidTimeFormat
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, ErrInvalidTimeFormat
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, 0, ErrInvalidTimeFormat
	}
	return hours, minutes, nil
}
