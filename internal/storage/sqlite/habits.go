package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mkoval/trecker/internal/models"
	"github.com/mkoval/trecker/internal/storage"
)

const habitColumns = `id, name, date, time, kind, completed_dates, streak, best_streak,
	total_completions, notification_enabled, notification_id, snooze_count,
	color, priority, notes, category, created_at, updated_at`

func (s *Store) AddHabit(habit models.Habit) error {
	return s.UpdateHabit(habit)
}

func (s *Store) GetHabit(id int64) (models.Habit, error) {
	row := s.db.QueryRow("SELECT "+habitColumns+" FROM habits WHERE id = ?", id)
	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, fmt.Errorf("habit %d: %w", id, storage.ErrNotFound)
	}
	return h, err
}

func (s *Store) GetHabitByName(name string) (models.Habit, error) {
	row := s.db.QueryRow("SELECT "+habitColumns+" FROM habits WHERE name = ?", name)
	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, fmt.Errorf("habit %q: %w", name, storage.ErrNotFound)
	}
	return h, err
}

func (s *Store) GetAllHabits() ([]models.Habit, error) {
	rows, err := s.db.Query("SELECT " + habitColumns + " FROM habits ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []models.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (s *Store) UpdateHabit(habit models.Habit) error {
	completed, err := json.Marshal(habit.CompletedDates)
	if err != nil {
		return fmt.Errorf("failed to encode completed dates: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO habits (`+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		habit.ID, habit.Name, habit.Date, habit.Time, string(habit.Kind),
		string(completed), habit.Streak, habit.BestStreak, habit.TotalCompletions,
		habit.NotificationEnabled, habit.NotificationID, habit.SnoozeCount,
		habit.Color, habit.Priority, habit.Notes, habit.Category,
		habit.CreatedAt.Format(time.RFC3339), habit.UpdatedAt.Format(time.RFC3339))
	return err
}

func (s *Store) DeleteHabit(id int64) error {
	res, err := s.db.Exec("DELETE FROM habits WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("habit %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHabit(row rowScanner) (models.Habit, error) {
	var h models.Habit
	var kind, completed, createdAt, updatedAt string

	err := row.Scan(&h.ID, &h.Name, &h.Date, &h.Time, &kind, &completed,
		&h.Streak, &h.BestStreak, &h.TotalCompletions, &h.NotificationEnabled,
		&h.NotificationID, &h.SnoozeCount, &h.Color, &h.Priority, &h.Notes,
		&h.Category, &createdAt, &updatedAt)
	if err != nil {
		return models.Habit{}, err
	}

	h.Kind = models.Kind(kind)
	if err := json.Unmarshal([]byte(completed), &h.CompletedDates); err != nil {
		return models.Habit{}, fmt.Errorf("failed to decode completed dates for habit %d: %w", h.ID, err)
	}
	h.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse created_at for habit %d: %w", h.ID, err)
	}
	h.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse updated_at for habit %d: %w", h.ID, err)
	}
	return h, nil
}
