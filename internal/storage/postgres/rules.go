package postgres

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mkoval/trecker/internal/models"
	"github.com/mkoval/trecker/internal/storage"
)

func (s *Store) SaveRule(habitID int64, rule models.Rule) error {
	daysOfWeek, err := json.Marshal(rule.DaysOfWeek)
	if err != nil {
		return fmt.Errorf("failed to encode days of week: %w", err)
	}
	daysOfMonth, err := json.Marshal(rule.DaysOfMonth)
	if err != nil {
		return fmt.Errorf("failed to encode days of month: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO rules
			(habit_id, kind, start_date, end_date, time, interval_count, interval_unit, days_of_week, days_of_month)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (habit_id) DO UPDATE SET
			kind = EXCLUDED.kind,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			time = EXCLUDED.time,
			interval_count = EXCLUDED.interval_count,
			interval_unit = EXCLUDED.interval_unit,
			days_of_week = EXCLUDED.days_of_week,
			days_of_month = EXCLUDED.days_of_month`,
		habitID, string(rule.Kind), rule.StartDate, rule.EndDate, rule.Time,
		rule.IntervalCount, string(rule.IntervalUnit), string(daysOfWeek), string(daysOfMonth))
	return err
}

func (s *Store) GetRule(habitID int64) (models.Rule, error) {
	row := s.db.QueryRow(`
		SELECT kind, start_date, end_date, time, interval_count, interval_unit, days_of_week, days_of_month
		FROM rules WHERE habit_id = $1`, habitID)

	var r models.Rule
	var kind, unit, daysOfWeek, daysOfMonth string
	err := row.Scan(&kind, &r.StartDate, &r.EndDate, &r.Time,
		&r.IntervalCount, &unit, &daysOfWeek, &daysOfMonth)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Rule{}, fmt.Errorf("rule for habit %d: %w", habitID, storage.ErrNotFound)
	}
	if err != nil {
		return models.Rule{}, err
	}
	if err := decodeRuleSets(&r, kind, unit, daysOfWeek, daysOfMonth); err != nil {
		return models.Rule{}, err
	}
	return r, nil
}

func (s *Store) GetAllRules() (map[int64]models.Rule, error) {
	rows, err := s.db.Query(`
		SELECT habit_id, kind, start_date, end_date, time, interval_count, interval_unit, days_of_week, days_of_month
		FROM rules`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make(map[int64]models.Rule)
	for rows.Next() {
		var habitID int64
		var kind, unit, daysOfWeek, daysOfMonth string
		var r models.Rule
		err := rows.Scan(&habitID, &kind, &r.StartDate, &r.EndDate, &r.Time,
			&r.IntervalCount, &unit, &daysOfWeek, &daysOfMonth)
		if err != nil {
			return nil, err
		}
		if err := decodeRuleSets(&r, kind, unit, daysOfWeek, daysOfMonth); err != nil {
			return nil, fmt.Errorf("habit %d: %w", habitID, err)
		}
		rules[habitID] = r
	}
	return rules, rows.Err()
}

func (s *Store) DeleteRule(habitID int64) error {
	_, err := s.db.Exec("DELETE FROM rules WHERE habit_id = $1", habitID)
	return err
}

func decodeRuleSets(r *models.Rule, kind, unit, daysOfWeek, daysOfMonth string) error {
	r.Kind = models.Kind(kind)
	r.IntervalUnit = models.IntervalUnit(unit)
	if err := json.Unmarshal([]byte(daysOfWeek), &r.DaysOfWeek); err != nil {
		return fmt.Errorf("failed to decode days of week: %w", err)
	}
	if err := json.Unmarshal([]byte(daysOfMonth), &r.DaysOfMonth); err != nil {
		return fmt.Errorf("failed to decode days of month: %w", err)
	}
	// Deprecated serialized forms are rewritten here so callers never see
	// them.
	r.Normalize()
	return nil
}
