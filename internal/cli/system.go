package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/mkoval/trecker/internal/constants"
	"github.com/mkoval/trecker/internal/dateutil"
	"github.com/mkoval/trecker/internal/keyring"
	"github.com/mkoval/trecker/internal/logger"
	"github.com/mkoval/trecker/internal/notifier"
	"github.com/mkoval/trecker/internal/storage/postgres"
)

var timeNow = time.Now

type InitCmd struct {
	Force bool `help:"Force reset by deleting the existing database before initialization."`
}

func (c *InitCmd) Run(ctx *Context) error {
	if c.Force {
		dbPath := ctx.Store.GetConfigPath()
		if _, err := os.Stat(dbPath); err == nil {
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			fmt.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Printf("Initialized trecker storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}

// NotifyCmd drives the reminder pipeline. By default it runs one pass for the
// current minute; with --daemon it keeps running a minute tick until
// interrupted. Hidden because the tray app invokes it, not users.
type NotifyCmd struct {
	Daemon bool `help:"Keep running and deliver reminders every minute."`
}

func (c *NotifyCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	d := notifier.NewDaemon(ctx.Store, notifier.New())
	if !c.Daemon {
		return d.Tick(timeNow())
	}

	if err := d.Start(); err != nil {
		return err
	}
	defer d.Stop()
	logger.Info("Reminder daemon started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Info("Reminder daemon stopping")
	return nil
}

// KeyringSetCmd stores database connection credentials in the OS keyring
type KeyringSetCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in keyring"`
}

func (cmd *KeyringSetCmd) Run(ctx *Context) error {
	if !strings.HasPrefix(cmd.ConnectionString, "postgres://") &&
		!strings.HasPrefix(cmd.ConnectionString, "postgresql://") &&
		!strings.Contains(cmd.ConnectionString, "host=") {
		return errors.New("connection string must be a valid PostgreSQL connection string")
	}

	_, err := postgres.ValidateConnString(cmd.ConnectionString)
	if err != nil {
		if errors.Is(err, postgres.ErrEmbeddedCredentials) {
			fmt.Println("Warning: connection string contains embedded credentials.")
			fmt.Println("It will be stored as-is in the encrypted OS keyring.")
		} else {
			return fmt.Errorf("invalid connection string: %w", err)
		}
	}

	if err := keyring.SetConnectionString(cmd.ConnectionString); err != nil {
		return fmt.Errorf("failed to store connection string in keyring: %w", err)
	}

	fmt.Println("Connection string stored in OS keyring")
	return nil
}

// KeyringGetCmd retrieves database connection credentials from the OS keyring
type KeyringGetCmd struct{}

func (cmd *KeyringGetCmd) Run(ctx *Context) error {
	connStr, err := keyring.GetConnectionString()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring. Use 'trecker keyring set' to store one")
		}
		return fmt.Errorf("failed to retrieve connection string from keyring: %w", err)
	}

	fmt.Println(maskPassword(connStr))
	return nil
}

// KeyringDeleteCmd removes database connection credentials from the OS keyring
type KeyringDeleteCmd struct{}

func (cmd *KeyringDeleteCmd) Run(ctx *Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring")
		}
		return fmt.Errorf("failed to delete connection string from keyring: %w", err)
	}
	fmt.Println("Connection string removed from OS keyring")
	return nil
}

type SettingsCmd struct {
	Show SettingsShowCmd `cmd:"" help:"Show current settings." default:"1"`
	Set  SettingsSetCmd  `cmd:"" help:"Change a setting."`
}

type SettingsShowCmd struct{}

func (c *SettingsShowCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return err
	}

	fmt.Printf("notifications:    %t\n", settings.NotificationsEnabled)
	fmt.Printf("default-time:     %s\n", settings.DefaultTime)
	fmt.Printf("advance-minutes:  %d\n", settings.AdvanceMinutes)
	fmt.Printf("default-category: %s\n", settings.DefaultCategory)
	return nil
}

type SettingsSetCmd struct {
	Key   string `arg:"" help:"Setting key: notifications, default-time, advance-minutes, default-category."`
	Value string `arg:"" help:"New value."`
}

func (c *SettingsSetCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return err
	}

	switch c.Key {
	case "notifications":
		switch strings.ToLower(c.Value) {
		case "on", "true", "yes":
			settings.NotificationsEnabled = true
		case "off", "false", "no":
			settings.NotificationsEnabled = false
		default:
			return fmt.Errorf("invalid value for notifications: %s (expected on or off)", c.Value)
		}
	case "default-time":
		if !dateutil.IsValidTime(c.Value) {
			return fmt.Errorf("invalid time format: %s (expected HH:MM)", c.Value)
		}
		settings.DefaultTime = dateutil.FormatTimeForDisplay(c.Value)
	case "advance-minutes":
		var mins int
		if _, err := fmt.Sscanf(c.Value, "%d", &mins); err != nil || !slices.Contains(constants.AdvanceOptions, mins) {
			return fmt.Errorf("invalid advance minutes %s (choose from %v)", c.Value, constants.AdvanceOptions)
		}
		settings.AdvanceMinutes = mins
	case "default-category":
		settings.DefaultCategory = c.Value
	default:
		return fmt.Errorf("unknown setting: %s", c.Key)
	}

	if err := ctx.Store.SaveSettings(settings); err != nil {
		return err
	}
	fmt.Printf("Set %s to %s\n", c.Key, c.Value)
	return nil
}

func maskPassword(connStr string) string {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		if idx := strings.Index(connStr, "://"); idx != -1 {
			remaining := connStr[idx+3:]
			if atIdx := strings.LastIndex(remaining, "@"); atIdx != -1 {
				userInfo := remaining[:atIdx]
				if colonIdx := strings.Index(userInfo, ":"); colonIdx != -1 {
					return connStr[:idx+3] + userInfo[:colonIdx] + ":****" + connStr[idx+3+atIdx:]
				}
			}
		}
	}

	if strings.Contains(connStr, "password=") {
		var masked []string
		for _, part := range strings.Fields(connStr) {
			if strings.HasPrefix(part, "password=") {
				masked = append(masked, "password=****")
			} else {
				masked = append(masked, part)
			}
		}
		return strings.Join(masked, " ")
	}

	return connStr
}
