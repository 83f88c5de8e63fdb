package backup

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mkoval/trecker/internal/logger"

	_ "modernc.org/sqlite"
)

const (
	// MaxSnapshots is the number of snapshots kept after rotation.
	MaxSnapshots = 14
	// SnapshotDirName is the directory, next to the database, holding snapshots.
	SnapshotDirName = "backups"

	snapshotPrefix = "trecker-"
	snapshotSuffix = ".db"
	stampFormat    = "20060102-150405"
)

// Snapshot describes a single on-disk database snapshot.
type Snapshot struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Manager creates, lists, and restores snapshots of a SQLite database file.
type Manager struct {
	dbPath      string
	snapshotDir string
	now         func() time.Time
}

func NewManager(dbPath string) *Manager {
	return &Manager{
		dbPath:      dbPath,
		snapshotDir: filepath.Join(filepath.Dir(dbPath), SnapshotDirName),
		now:         time.Now,
	}
}

// SnapshotDir returns the directory snapshots are written to.
func (m *Manager) SnapshotDir() string {
	return m.snapshotDir
}

// Create writes a new snapshot and rotates old ones past MaxSnapshots.
// It returns the path of the snapshot it wrote.
func (m *Manager) Create() (string, error) {
	return m.create(true)
}

func (m *Manager) create(rotate bool) (string, error) {
	if _, err := os.Stat(m.dbPath); os.IsNotExist(err) {
		return "", fmt.Errorf("database does not exist: %s", m.dbPath)
	}
	if err := os.MkdirAll(m.snapshotDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	stamp := m.now().Format(stampFormat)
	path := filepath.Join(m.snapshotDir, snapshotPrefix+stamp+snapshotSuffix)
	for n := 1; ; n++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		if n > 100 {
			return "", fmt.Errorf("failed to generate unique snapshot name for %s", stamp)
		}
		path = filepath.Join(m.snapshotDir, fmt.Sprintf("%s%s-%d%s", snapshotPrefix, stamp, n, snapshotSuffix))
	}

	if err := m.writeSnapshot(path); err != nil {
		return "", fmt.Errorf("failed to snapshot database: %w", err)
	}

	if rotate {
		if err := m.rotate(); err != nil {
			// A failed rotation never fails the snapshot that was just written.
			logger.Warn("failed to rotate old snapshots", "error", err)
		}
	}
	return path, nil
}

// writeSnapshot copies the live database to destPath. VACUUM INTO produces
// a consistent copy even while other connections hold the file open; plain
// file copy is the fallback for SQLite builds without it.
func (m *Manager) writeSnapshot(destPath string) error {
	src, err := sql.Open("sqlite", m.dbPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer src.Close()

	var count int
	if err := src.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count); err != nil {
		return fmt.Errorf("source database appears to be corrupted: %w", err)
	}

	if _, err := src.Exec("VACUUM INTO ?", destPath); err != nil {
		return copyFile(m.dbPath, destPath)
	}
	return nil
}

// List returns all snapshots, newest first.
func (m *Manager) List() ([]Snapshot, error) {
	if _, err := os.Stat(m.snapshotDir); os.IsNotExist(err) {
		return []Snapshot{}, nil
	}

	entries, err := os.ReadDir(m.snapshotDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var snaps []Snapshot
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
			continue
		}

		stamp := strings.TrimPrefix(name, snapshotPrefix)
		stamp = strings.TrimSuffix(stamp, snapshotSuffix)
		// Strip a uniqueness counter if one was appended.
		if i := strings.LastIndex(stamp, "-"); i > len(stampFormat)-1 {
			stamp = stamp[:i]
		}
		ts, err := time.Parse(stampFormat, stamp)
		if err != nil {
			continue
		}

		path := filepath.Join(m.snapshotDir, name)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		snaps = append(snaps, Snapshot{Path: path, Timestamp: ts, Size: info.Size()})
	}

	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].Timestamp.After(snaps[j].Timestamp)
	})
	return snaps, nil
}

func (m *Manager) rotate() error {
	snaps, err := m.List()
	if err != nil {
		return err
	}
	for i := MaxSnapshots; i < len(snaps); i++ {
		if err := os.Remove(snaps[i].Path); err != nil {
			return fmt.Errorf("failed to remove old snapshot %s: %w", snaps[i].Path, err)
		}
	}
	return nil
}

// Restore replaces the live database with the given snapshot. The current
// database, if present, is snapshotted first so the restore can be undone.
func (m *Manager) Restore(snapshotPath string) error {
	if _, err := os.Stat(snapshotPath); os.IsNotExist(err) {
		return fmt.Errorf("snapshot does not exist: %s", snapshotPath)
	}
	if err := verifySnapshot(snapshotPath); err != nil {
		return fmt.Errorf("snapshot is corrupted or invalid: %w", err)
	}

	if _, err := os.Stat(m.dbPath); err == nil {
		// Skip rotation here so a restore can never delete the snapshot
		// being restored.
		saved, err := m.create(false)
		if err != nil {
			return fmt.Errorf("failed to snapshot current database before restore: %w", err)
		}
		logger.Info("saved current database", "snapshot", filepath.Base(saved))
	}

	tempPath := m.dbPath + ".restore.tmp"
	if err := copyFile(snapshotPath, tempPath); err != nil {
		return fmt.Errorf("failed to copy snapshot: %w", err)
	}
	if err := os.Rename(tempPath, m.dbPath); err != nil {
		if removeErr := os.Remove(tempPath); removeErr != nil {
			logger.Warn("failed to remove temporary file", "path", tempPath, "error", removeErr)
		}
		return fmt.Errorf("failed to restore database: %w", err)
	}
	return nil
}

func verifySnapshot(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	var count int
	return db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return out.Sync()
}
