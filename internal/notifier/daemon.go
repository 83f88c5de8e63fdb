package notifier

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mkoval/trecker/internal/dateutil"
	"github.com/mkoval/trecker/internal/logger"
	"github.com/mkoval/trecker/internal/models"
	"github.com/mkoval/trecker/internal/reminder"
	"github.com/mkoval/trecker/internal/stats"
	"github.com/mkoval/trecker/internal/storage"
)

// Sender is the delivery half of the daemon; Notifier implements it against
// the tray webhook, tests swap in a recorder.
type Sender interface {
	Notify(text string) error
}

// Daemon wakes up once a minute, checks which habits have a reminder due at
// that minute, and hands them to the Sender. Reminders fire at the habit's
// time-of-day minus the configured advance. Completed habits and habits with
// notifications turned off are skipped, as is everything when the global
// toggle is off.
type Daemon struct {
	store  storage.Provider
	sender Sender
	cron   *cron.Cron
	now    func() time.Time
}

func NewDaemon(store storage.Provider, sender Sender) *Daemon {
	return &Daemon{
		store:  store,
		sender: sender,
		cron:   cron.New(),
		now:    time.Now,
	}
}

// Start schedules the minute tick and begins running. It returns once the
// schedule is registered; Stop shuts the ticker down.
func (d *Daemon) Start() error {
	_, err := d.cron.AddFunc("* * * * *", func() {
		if err := d.Tick(d.now()); err != nil {
			logger.Warn("Reminder tick failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminder tick: %w", err)
	}
	d.cron.Start()
	return nil
}

func (d *Daemon) Stop() {
	d.cron.Stop()
}

// Tick runs one reminder pass for the given instant.
func (d *Daemon) Tick(now time.Time) error {
	settings, err := d.store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if !settings.NotificationsEnabled {
		return nil
	}

	habits, err := d.store.GetAllHabits()
	if err != nil {
		return fmt.Errorf("failed to load habits: %w", err)
	}
	rules, err := d.store.GetAllRules()
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	today := dateutil.Canonical(now)
	minute := now.Format("15:04")

	for i := range habits {
		h := &habits[i]
		if !h.NotificationEnabled || h.CompletedOn(today) {
			continue
		}
		if !stats.DueOn(*h, rules, now) {
			continue
		}
		if d.triggerFor(h, settings) != minute {
			continue
		}
		if err := d.sender.Notify(fmt.Sprintf("Time for: %s", h.Name)); err != nil {
			logger.Warn("Failed to deliver reminder", "habit", h.Name, "error", err)
			continue
		}
		logger.Debug("Delivered reminder", "habit", h.Name, "at", minute)
	}

	return nil
}

// triggerFor picks the habit's own time when set, otherwise the configured
// default, and applies the advance offset.
func (d *Daemon) triggerFor(h *models.Habit, settings storage.Settings) string {
	occTime := h.Time
	if occTime == "" {
		occTime = settings.DefaultTime
	}
	return reminder.TriggerTime(occTime, settings.AdvanceMinutes)
}
