// Package storage defines the persistence contract shared by the SQLite and
// Postgres backends.
package storage

import (
	"errors"

	"github.com/mkoval/trecker/internal/models"
)

type Settings = models.Settings

// ErrNotFound is returned when a habit or rule does not exist. Backends wrap
// their driver-level miss into this sentinel so callers can errors.Is it.
var ErrNotFound = errors.New("record not found")

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (Settings, error)
	SaveSettings(Settings) error

	// Habits
	NextID() (int64, error)
	AddHabit(models.Habit) error
	GetHabit(id int64) (models.Habit, error)
	GetHabitByName(name string) (models.Habit, error)
	GetAllHabits() ([]models.Habit, error)
	UpdateHabit(models.Habit) error
	DeleteHabit(id int64) error

	// Rules are kept in a side mapping keyed by habit id; interval and
	// day-set kinds need the original rule to answer membership queries.
	SaveRule(habitID int64, rule models.Rule) error
	GetRule(habitID int64) (models.Rule, error)
	GetAllRules() (map[int64]models.Rule, error)
	DeleteRule(habitID int64) error

	// Utils
	GetConfigPath() string
}
