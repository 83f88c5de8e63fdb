package postgres

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
	row := s.db.QueryRow("SELECT "+habitColumns+" FROM habits WHERE id = $1", id)
	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, fmt.Errorf("habit %d: %w", id, storage.ErrNotFound)
	}
	return h, err
}

func (s *Store) GetHabitByName(name string) (models.Habit, error) {
	row := s.db.QueryRow("SELECT "+habitColumns+" FROM habits WHERE name = $1", name)
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
		INSERT INTO habits (`+habitColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			date = EXCLUDED.date,
			time = EXCLUDED.time,
			kind = EXCLUDED.kind,
			completed_dates = EXCLUDED.completed_dates,
			streak = EXCLUDED.streak,
			best_streak = EXCLUDED.best_streak,
			total_completions = EXCLUDED.total_completions,
			notification_enabled = EXCLUDED.notification_enabled,
			notification_id = EXCLUDED.notification_id,
			snooze_count = EXCLUDED.snooze_count,
			color = EXCLUDED.color,
			priority = EXCLUDED.priority,
			notes = EXCLUDED.notes,
			category = EXCLUDED.category,
			updated_at = EXCLUDED.updated_at`,
		habit.ID, habit.Name, habit.Date, habit.Time, string(habit.Kind),
		string(completed), habit.Streak, habit.BestStreak, habit.TotalCompletions,
		habit.NotificationEnabled, habit.NotificationID, habit.SnoozeCount,
		habit.Color, habit.Priority, habit.Notes, habit.Category,
		habit.CreatedAt, habit.UpdatedAt)
	return err
}

func (s *Store) DeleteHabit(id int64) error {
	res, err := s.db.Exec("DELETE FROM habits WHERE id = $1", id)
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
	var kind, completed string
	var createdAt, updatedAt time.Time

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
	h.CreatedAt = createdAt
	h.UpdatedAt = updatedAt
	return h, nil
}
