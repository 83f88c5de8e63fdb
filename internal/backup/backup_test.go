package backup

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "trecker.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`CREATE TABLE habits (id INTEGER PRIMARY KEY, name TEXT)`); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO habits (id, name) VALUES (1, 'meditate')`); err != nil {
		t.Fatalf("failed to insert row: %v", err)
	}
	return dbPath
}

func TestCreateSnapshot(t *testing.T) {
	dbPath := newTestDB(t)
	m := NewManager(dbPath)

	path, err := m.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	if filepath.Dir(path) != m.SnapshotDir() {
		t.Errorf("snapshot written to %s, want directory %s", path, m.SnapshotDir())
	}

	// The snapshot must be a readable database holding the source rows.
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open snapshot: %v", err)
	}
	defer db.Close()
	var name string
	if err := db.QueryRow(`SELECT name FROM habits WHERE id = 1`).Scan(&name); err != nil {
		t.Fatalf("failed to query snapshot: %v", err)
	}
	if name != "meditate" {
		t.Errorf("snapshot row = %q, want %q", name, "meditate")
	}
}

func TestCreateMissingDatabase(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "nope.db"))
	if _, err := m.Create(); err == nil {
		t.Error("expected error for missing database")
	}
}

func TestListSortsNewestFirst(t *testing.T) {
	dbPath := newTestDB(t)
	m := NewManager(dbPath)

	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		if _, err := m.Create(); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		clock = clock.Add(time.Minute)
	}

	snaps, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("got %d snapshots, want 3", len(snaps))
	}
	for i := 1; i < len(snaps); i++ {
		if snaps[i].Timestamp.After(snaps[i-1].Timestamp) {
			t.Errorf("snapshots not sorted newest first: %v before %v", snaps[i-1].Timestamp, snaps[i].Timestamp)
		}
	}
}

func TestListIgnoresForeignFiles(t *testing.T) {
	dbPath := newTestDB(t)
	m := NewManager(dbPath)
	if _, err := m.Create(); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for _, name := range []string{"notes.txt", "trecker-garbage.db", "other-20240301-090000.db"} {
		if err := os.WriteFile(filepath.Join(m.SnapshotDir(), name), []byte("x"), 0600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}

	snaps, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(snaps) != 1 {
		t.Errorf("got %d snapshots, want 1", len(snaps))
	}
}

func TestRotationKeepsMaxSnapshots(t *testing.T) {
	dbPath := newTestDB(t)
	m := NewManager(dbPath)

	clock := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	for i := 0; i < MaxSnapshots+3; i++ {
		if _, err := m.Create(); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		clock = clock.Add(time.Hour)
	}

	snaps, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(snaps) != MaxSnapshots {
		t.Errorf("got %d snapshots after rotation, want %d", len(snaps), MaxSnapshots)
	}
	// The oldest snapshots are the ones rotated out.
	oldest := snaps[len(snaps)-1].Timestamp
	want := time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC)
	if !oldest.Equal(want) {
		t.Errorf("oldest surviving snapshot = %v, want %v", oldest, want)
	}
}

func TestRestore(t *testing.T) {
	dbPath := newTestDB(t)
	m := NewManager(dbPath)

	snapPath, err := m.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Mutate the live database after the snapshot.
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := db.Exec(`UPDATE habits SET name = 'journal' WHERE id = 1`); err != nil {
		t.Fatalf("failed to update row: %v", err)
	}
	db.Close()

	if err := m.Restore(snapPath); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	db, err = sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to reopen database: %v", err)
	}
	defer db.Close()
	var name string
	if err := db.QueryRow(`SELECT name FROM habits WHERE id = 1`).Scan(&name); err != nil {
		t.Fatalf("failed to query restored database: %v", err)
	}
	if name != "meditate" {
		t.Errorf("restored row = %q, want %q", name, "meditate")
	}

	// The pre-restore state must itself have been snapshotted.
	snaps, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(snaps) < 2 {
		t.Errorf("got %d snapshots after restore, want at least 2", len(snaps))
	}
}

func TestRestoreRejectsInvalidFile(t *testing.T) {
	dbPath := newTestDB(t)
	m := NewManager(dbPath)

	bad := filepath.Join(t.TempDir(), "bad.db")
	if err := os.WriteFile(bad, []byte("not a database"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if err := m.Restore(bad); err == nil {
		t.Error("expected error restoring invalid file")
	}

	if err := m.Restore(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Error("expected error restoring missing snapshot")
	}
}
