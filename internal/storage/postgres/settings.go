package postgres

import (
	"fmt"

	"github.com/mkoval/trecker/internal/storage"
)

func (s *Store) GetSettings() (storage.Settings, error) {
	rows, err := s.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return storage.Settings{}, err
	}
	defer rows.Close()

	settings := storage.Settings{}
	count := 0
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return storage.Settings{}, err
		}
		switch key {
		case "notifications_enabled":
			settings.NotificationsEnabled = value == "true"
		case "default_time":
			settings.DefaultTime = value
		case "advance_minutes":
			if _, err := fmt.Sscanf(value, "%d", &settings.AdvanceMinutes); err != nil {
				return storage.Settings{}, fmt.Errorf("parsing advance_minutes: %w", err)
			}
		case "default_category":
			settings.DefaultCategory = value
		}
		count++
	}

	if count == 0 {
		return storage.Settings{}, fmt.Errorf("settings not found")
	}

	return settings, nil
}

func (s *Store) SaveSettings(settings storage.Settings) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT INTO settings (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value")
	if err != nil {
		return err
	}
	defer stmt.Close()

	if _, err := stmt.Exec("notifications_enabled", fmt.Sprintf("%t", settings.NotificationsEnabled)); err != nil {
		return err
	}
	if _, err := stmt.Exec("default_time", settings.DefaultTime); err != nil {
		return err
	}
	if _, err := stmt.Exec("advance_minutes", fmt.Sprintf("%d", settings.AdvanceMinutes)); err != nil {
		return err
	}
	if _, err := stmt.Exec("default_category", settings.DefaultCategory); err != nil {
		return err
	}

	return tx.Commit()
}
