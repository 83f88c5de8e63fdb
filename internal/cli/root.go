// Package cli implements the trecker command tree.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mkoval/trecker/internal/config"
	"github.com/mkoval/trecker/internal/models"
	"github.com/mkoval/trecker/internal/storage"
)

type Context struct {
	Store  storage.Provider
	Config config.Config
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	overdueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)
)

// ParseWeekdays parses a comma-separated list of weekdays
func ParseWeekdays(s string) ([]time.Weekday, error) {
	parts := strings.Split(s, ",")
	var weekdays []time.Weekday

	dayMap := map[string]time.Weekday{
		"sun":       time.Sunday,
		"sunday":    time.Sunday,
		"mon":       time.Monday,
		"monday":    time.Monday,
		"tue":       time.Tuesday,
		"tuesday":   time.Tuesday,
		"wed":       time.Wednesday,
		"wednesday": time.Wednesday,
		"thu":       time.Thursday,
		"thursday":  time.Thursday,
		"fri":       time.Friday,
		"friday":    time.Friday,
		"sat":       time.Saturday,
		"saturday":  time.Saturday,
	}

	for _, part := range parts {
		part = strings.TrimSpace(strings.ToLower(part))
		if wd, ok := dayMap[part]; ok {
			weekdays = append(weekdays, wd)
		} else {
			// Try parsing as number (0=Sunday, 6=Saturday)
			num, err := strconv.Atoi(part)
			if err == nil && num >= 0 && num <= 6 {
				weekdays = append(weekdays, time.Weekday(num))
			} else {
				return nil, fmt.Errorf("invalid weekday: %s", part)
			}
		}
	}

	return weekdays, nil
}

// ParseMonthDays parses a comma-separated list of days of the month (1-31).
func ParseMonthDays(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	var days []int
	for _, part := range parts {
		part = strings.TrimSpace(part)
		num, err := strconv.Atoi(part)
		if err != nil || num < 1 || num > 31 {
			return nil, fmt.Errorf("invalid day of month: %s", part)
		}
		days = append(days, num)
	}
	return days, nil
}

// ParseKind maps a user-facing kind name onto the rule kind. The deprecated
// "never" spelling is accepted and normalized later.
func ParseKind(s string) (models.Kind, error) {
	switch models.Kind(strings.TrimSpace(strings.ToLower(s))) {
	case models.KindOnce:
		return models.KindOnce, nil
	case models.KindNever:
		return models.KindNever, nil
	case models.KindDaily:
		return models.KindDaily, nil
	case models.KindWeekly:
		return models.KindWeekly, nil
	case models.KindMonthly:
		return models.KindMonthly, nil
	case models.KindYearly:
		return models.KindYearly, nil
	case models.KindInterval, "interval":
		return models.KindInterval, nil
	case models.KindWeekdays:
		return models.KindWeekdays, nil
	case models.KindWeekends:
		return models.KindWeekends, nil
	case models.KindDaysOfWeek:
		return models.KindDaysOfWeek, nil
	case models.KindDaysOfMonth:
		return models.KindDaysOfMonth, nil
	default:
		return "", fmt.Errorf("unknown kind: %s", s)
	}
}
