package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/mkoval/trecker/internal/constants"
	"github.com/mkoval/trecker/internal/storage"
)

type Store struct {
	path string
	db   *sql.DB
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS counters (
	name  TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS habits (
	id                   INTEGER PRIMARY KEY,
	name                 TEXT NOT NULL,
	date                 TEXT NOT NULL,
	time                 TEXT NOT NULL DEFAULT '',
	kind                 TEXT NOT NULL,
	completed_dates      TEXT NOT NULL DEFAULT '[]',
	streak               INTEGER NOT NULL DEFAULT 0,
	best_streak          INTEGER NOT NULL DEFAULT 0,
	total_completions    INTEGER NOT NULL DEFAULT 0,
	notification_enabled INTEGER NOT NULL DEFAULT 0,
	notification_id      TEXT NOT NULL DEFAULT '',
	snooze_count         INTEGER NOT NULL DEFAULT 0,
	color                TEXT NOT NULL DEFAULT '',
	priority             INTEGER NOT NULL DEFAULT 0,
	notes                TEXT NOT NULL DEFAULT '',
	category             TEXT NOT NULL DEFAULT '',
	created_at           TEXT NOT NULL,
	updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rules (
	habit_id       INTEGER PRIMARY KEY,
	kind           TEXT NOT NULL,
	start_date     TEXT NOT NULL,
	end_date       TEXT NOT NULL DEFAULT '',
	time           TEXT NOT NULL DEFAULT '',
	interval_count INTEGER NOT NULL DEFAULT 0,
	interval_unit  TEXT NOT NULL DEFAULT '',
	days_of_week   TEXT NOT NULL DEFAULT '[]',
	days_of_month  TEXT NOT NULL DEFAULT '[]'
);
`

func (s *Store) Init() error {
	// Create config directory if it doesn't exist
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Initialize default settings if not present
	if _, err := s.GetSettings(); err != nil {
		defaultSettings := storage.Settings{
			NotificationsEnabled: true,
			DefaultTime:          constants.DefaultTime,
			AdvanceMinutes:       constants.DefaultAdvanceMinutes,
		}
		if err := s.SaveSettings(defaultSettings); err != nil {
			return fmt.Errorf("failed to save default settings: %w", err)
		}
	}

	return nil
}

func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	exists, err := s.tableExists("habits")
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)
	}

	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) GetConfigPath() string {
	return s.path
}

// tableExists checks if a table exists in the SQLite database. The check is
// case-insensitive to match SQLite's behavior.
func (s *Store) tableExists(tableName string) (bool, error) {
	var count int
	row := s.db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type='table' AND name COLLATE NOCASE = ?", tableName)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// NextID allocates a monotonically increasing habit id from the counters
// table. Allocation happens in a transaction so concurrent processes cannot
// hand out the same id twice.
func (s *Store) NextID() (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("INSERT OR IGNORE INTO counters (name, value) VALUES ('habit_id', 0)"); err != nil {
		return 0, err
	}
	if _, err := tx.Exec("UPDATE counters SET value = value + 1 WHERE name = 'habit_id'"); err != nil {
		return 0, err
	}

	var id int64
	if err := tx.QueryRow("SELECT value FROM counters WHERE name = 'habit_id'").Scan(&id); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}
