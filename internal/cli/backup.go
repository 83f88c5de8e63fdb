package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"

	"github.com/mkoval/trecker/internal/backup"
	"github.com/mkoval/trecker/internal/storage/sqlite"
)

type BackupCmd struct {
	Create  BackupCreateCmd  `cmd:"" help:"Snapshot the habit database."`
	List    BackupListCmd    `cmd:"" help:"List available snapshots."`
	Restore BackupRestoreCmd `cmd:"" help:"Restore the database from a snapshot."`
}

// backupManager resolves the live database file. Snapshots only apply to
// file-backed storage; Postgres users are expected to use pg_dump.
func backupManager(ctx *Context) (*backup.Manager, error) {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return nil, fmt.Errorf("backups are only supported for SQLite storage")
	}
	return backup.NewManager(ctx.Store.GetConfigPath()), nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}
	path, err := mgr.Create()
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	fmt.Printf("✓ Snapshot created: %s\n", filepath.Base(path))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}
	snaps, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	if len(snaps) == 0 {
		fmt.Println("No snapshots found.")
		fmt.Printf("Snapshots are stored in: %s\n", mgr.SnapshotDir())
		return nil
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("Snapshots (%d total, keeping most recent %d)", len(snaps), backup.MaxSnapshots)))
	for _, s := range snaps {
		fmt.Printf("  %s  %s  (%.1f KB)\n",
			s.Timestamp.Format("2006-01-02 15:04:05"),
			filepath.Base(s.Path),
			float64(s.Size)/1024.0)
	}
	fmt.Printf("\nSnapshot directory: %s\n", mgr.SnapshotDir())
	return nil
}

type BackupRestoreCmd struct {
	Snapshot string `arg:"" help:"Path or filename of the snapshot to restore."`
	Yes      bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *BackupRestoreCmd) Run(ctx *Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}

	path, err := resolveSnapshotPath(mgr, c.Snapshot)
	if err != nil {
		return err
	}

	if !c.Yes {
		var confirmed bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Replace the current database with %s?", filepath.Base(path))).
					Description("The current database is snapshotted first, so the restore can be undone.").
					Value(&confirmed),
			),
		).WithTheme(huh.ThemeDracula())
		if err := form.Run(); err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Restore cancelled.")
			return nil
		}
	}

	// Release the database before overwriting the file it points at.
	if err := ctx.Store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database connection: %v\n", err)
	}

	if err := mgr.Restore(path); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	fmt.Println("✓ Database restored.")
	return nil
}

// resolveSnapshotPath accepts an absolute path, a path relative to the
// working directory, or a bare filename inside the snapshot directory.
func resolveSnapshotPath(mgr *backup.Manager, arg string) (string, error) {
	if filepath.IsAbs(arg) {
		if _, err := os.Stat(arg); os.IsNotExist(err) {
			return "", fmt.Errorf("snapshot not found: %s", arg)
		}
		return arg, nil
	}
	if _, err := os.Stat(arg); err == nil {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return "", fmt.Errorf("failed to resolve snapshot path: %w", err)
		}
		return abs, nil
	}
	candidate := filepath.Join(mgr.SnapshotDir(), arg)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", fmt.Errorf("snapshot not found: tried current directory and %s", mgr.SnapshotDir())
}
