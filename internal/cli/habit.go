package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"github.com/mkoval/trecker/internal/constants"
	"github.com/mkoval/trecker/internal/dateutil"
	"github.com/mkoval/trecker/internal/ledger"
	"github.com/mkoval/trecker/internal/logger"
	"github.com/mkoval/trecker/internal/models"
	"github.com/mkoval/trecker/internal/notifier"
	"github.com/mkoval/trecker/internal/recurrence"
	"github.com/mkoval/trecker/internal/reminder"
	"github.com/mkoval/trecker/internal/stats"
	"github.com/mkoval/trecker/internal/storage"
)

type HabitCmd struct {
	Add        HabitAddCmd        `cmd:"" help:"Add a new habit."`
	List       HabitListCmd       `cmd:"" help:"List habits."`
	Today      HabitTodayCmd      `cmd:"" help:"Show today's habit status."`
	Complete   HabitCompleteCmd   `cmd:"" help:"Mark a habit as completed for a day."`
	Uncomplete HabitUncompleteCmd `cmd:"" help:"Retract a completion for a day."`
	Edit       HabitEditCmd       `cmd:"" help:"Edit an existing habit."`
	Snooze     HabitSnoozeCmd     `cmd:"" help:"Push a habit's reminder back."`
	Delete     HabitDeleteCmd     `cmd:"" help:"Delete a habit."`
	Preview    HabitPreviewCmd    `cmd:"" help:"Preview upcoming occurrences of a habit."`
}

type HabitAddCmd struct {
	Name        string `arg:"" optional:"" help:"Habit name."`
	Kind        string `help:"Recurrence kind: once, daily, weekly, monthly, yearly, interval, weekdays, weekends, days-of-week, days-of-month." default:"daily"`
	Date        string `help:"Start date in YYYY-MM-DD format (default: today)."`
	End         string `help:"Inclusive end date in YYYY-MM-DD format."`
	Time        string `help:"Time of day in HH:MM format."`
	Every       int    `help:"Interval count for the interval kind." default:"1"`
	Unit        string `help:"Interval unit: days, weeks, months, years." default:"days"`
	Days        string `help:"Comma-separated weekdays (weekly and days-of-week kinds)."`
	MonthDays   string `name:"month-days" help:"Comma-separated days of the month (days-of-month kind)."`
	Notify      bool   `help:"Enable reminders for this habit."`
	Color       string `help:"Display color (hex)."`
	Priority    int    `help:"Priority 1-5." default:"3"`
	Notes       string `help:"Free-form notes."`
	Category    string `help:"Category label."`
	Interactive bool   `short:"i" help:"Fill in the details interactively."`
}

func (c *HabitAddCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	if c.Interactive {
		if err := c.promptForm(); err != nil {
			return err
		}
	}
	if c.Name == "" {
		return errors.New("habit name is required")
	}

	kind, err := ParseKind(c.Kind)
	if err != nil {
		return err
	}

	startDate := c.Date
	if startDate == "" {
		startDate = time.Now().Format(constants.DateFormat)
	}
	habitTime := c.Time
	if habitTime == "" {
		habitTime = ctx.Config.Defaults.Time
	}

	rule := models.Rule{
		Kind:      kind,
		StartDate: startDate,
		EndDate:   c.End,
		Time:      habitTime,
	}
	if kind == models.KindInterval {
		rule.IntervalCount = c.Every
		rule.IntervalUnit = models.IntervalUnit(c.Unit)
	}
	if c.Days != "" {
		rule.DaysOfWeek, err = ParseWeekdays(c.Days)
		if err != nil {
			return err
		}
	}
	if c.MonthDays != "" {
		rule.DaysOfMonth, err = ParseMonthDays(c.MonthDays)
		if err != nil {
			return err
		}
	}

	rule.Normalize()
	if err := rule.Validate(); err != nil {
		return err
	}

	// Check if habit with same name already exists
	if _, err := ctx.Store.GetHabitByName(c.Name); err == nil {
		return fmt.Errorf("habit with name %q already exists", c.Name)
	}

	id, err := ctx.Store.NextID()
	if err != nil {
		return err
	}

	category := c.Category
	if category == "" {
		category = ctx.Config.Defaults.Category
	}

	now := time.Now()
	habit := models.Habit{
		ID:                  id,
		Name:                c.Name,
		Date:                rule.StartDate,
		Time:                rule.Time,
		Kind:                rule.Kind,
		NotificationEnabled: c.Notify,
		Color:               c.Color,
		Notes:               c.Notes,
		Category:            category,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	habit.SetPriority(c.Priority)
	if c.Notify {
		habit.NotificationID = uuid.New().String()
	}

	if err := ctx.Store.SaveRule(id, rule); err != nil {
		return err
	}
	if err := ctx.Store.AddHabit(habit); err != nil {
		return err
	}
	if habit.NotificationEnabled {
		syncReminder(ctx, habit)
	}

	fmt.Printf("Added habit: %s (%s)\n", c.Name, rule.Describe())
	return nil
}

func (c *HabitAddCmd) promptForm() error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit Name").
				Value(&c.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("habit name cannot be empty")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Repeats").
				Options(
					huh.NewOption("Once", string(models.KindOnce)),
					huh.NewOption("Daily", string(models.KindDaily)),
					huh.NewOption("Weekly", string(models.KindWeekly)),
					huh.NewOption("Monthly", string(models.KindMonthly)),
					huh.NewOption("Yearly", string(models.KindYearly)),
					huh.NewOption("Every N days/weeks/months", string(models.KindInterval)),
					huh.NewOption("Weekdays", string(models.KindWeekdays)),
					huh.NewOption("Weekends", string(models.KindWeekends)),
				).
				Value(&c.Kind),
			huh.NewInput().
				Title("Start date (YYYY-MM-DD, empty for today)").
				Value(&c.Date).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					if _, err := time.Parse(constants.DateFormat, s); err != nil {
						return fmt.Errorf("expected YYYY-MM-DD")
					}
					return nil
				}),
			huh.NewInput().
				Title("Time (HH:MM, optional)").
				Value(&c.Time).
				Validate(func(s string) error {
					if s == "" || dateutil.IsValidTime(s) {
						return nil
					}
					return fmt.Errorf("expected HH:MM")
				}),
			huh.NewConfirm().
				Title("Enable reminders?").
				Value(&c.Notify),
		),
	).WithTheme(huh.ThemeDracula())

	return form.Run()
}

type HabitListCmd struct {
	Category string `help:"Only show habits in this category."`
}

func (c *HabitListCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	habits, err := ctx.Store.GetAllHabits()
	if err != nil {
		return err
	}
	rules, err := ctx.Store.GetAllRules()
	if err != nil {
		return err
	}

	if len(habits) == 0 {
		fmt.Println("No habits found.")
		return nil
	}

	now := time.Now()
	today := dateutil.Canonical(now)
	for _, habit := range habits {
		if c.Category != "" && habit.Category != c.Category {
			continue
		}

		name := habit.Name
		switch {
		case habit.CompletedOn(today):
			name = doneStyle.Render(name)
		case stats.Overdue(habit, rules, now):
			name = overdueStyle.Render(name)
		}

		desc := stats.EffectiveRule(habit, rules).Describe()
		line := fmt.Sprintf("%s  %s", name, mutedStyle.Render(desc))
		if habit.Streak > 0 {
			line += fmt.Sprintf("  (streak %d)", habit.Streak)
		}
		fmt.Println(line)
	}

	return nil
}

type HabitTodayCmd struct{}

func (c *HabitTodayCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	habits, err := ctx.Store.GetAllHabits()
	if err != nil {
		return err
	}
	rules, err := ctx.Store.GetAllRules()
	if err != nil {
		return err
	}

	if len(habits) == 0 {
		fmt.Println("No habits found.")
		return nil
	}

	now := time.Now()
	today := dateutil.Canonical(now)
	fmt.Println(titleStyle.Render(fmt.Sprintf("Habits for %s", today)))
	fmt.Println()

	completed, due := 0, 0
	for _, habit := range habits {
		if !stats.DueOn(habit, rules, now) {
			continue
		}
		due++
		status := pendingStyle.Render("[ ]")
		if habit.CompletedOn(today) {
			status = doneStyle.Render("[x]")
			completed++
		}
		fmt.Printf("%s %s %s\n", status, habit.Name, mutedStyle.Render(habit.DisplayTime()))
	}

	if due == 0 {
		fmt.Println("Nothing due today.")
		return nil
	}

	fmt.Printf("\nCompleted: %d/%d\n", completed, due)
	return nil
}

type HabitCompleteCmd struct {
	Name string `arg:"" help:"Habit name."`
	Date string `help:"Date in YYYY-MM-DD format (default: today)." default:""`
}

func (c *HabitCompleteCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	habit, err := ctx.Store.GetHabitByName(c.Name)
	if err != nil {
		return fmt.Errorf("habit %q not found", c.Name)
	}

	day, err := resolveDay(c.Date)
	if err != nil {
		return err
	}

	ledger.Complete(&habit, day)
	if err := ctx.Store.UpdateHabit(habit); err != nil {
		return err
	}

	// A completed habit needs no reminder today. Best effort: the tray app
	// may not be running.
	if habit.NotificationID != "" {
		if err := notifier.New().Cancel(habit.NotificationID); err != nil {
			logger.Debug("could not cancel pending reminder", "habit", habit.Name, "error", err)
		}
	}

	fmt.Printf("Completed %q for %s (streak %d)\n", c.Name, dateutil.Canonical(day), habit.Streak)
	return nil
}

type HabitUncompleteCmd struct {
	Name string `arg:"" help:"Habit name."`
	Date string `help:"Date in YYYY-MM-DD format (default: today)." default:""`
}

func (c *HabitUncompleteCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	habit, err := ctx.Store.GetHabitByName(c.Name)
	if err != nil {
		return fmt.Errorf("habit %q not found", c.Name)
	}

	day, err := resolveDay(c.Date)
	if err != nil {
		return err
	}

	ledger.Uncomplete(&habit, day)
	if err := ctx.Store.UpdateHabit(habit); err != nil {
		return err
	}

	fmt.Printf("Uncompleted %q for %s\n", c.Name, dateutil.Canonical(day))
	return nil
}

type HabitEditCmd struct {
	Name     string  `arg:"" help:"Habit name."`
	Rename   string  `help:"New name."`
	Time     string  `help:"New time of day in HH:MM format."`
	Priority int     `help:"New priority 1-5." default:"-1"`
	Notes    *string `help:"New notes."`
	Category *string `help:"New category."`
	Notify   *bool   `help:"Enable or disable reminders."`
}

func (c *HabitEditCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	habit, err := ctx.Store.GetHabitByName(c.Name)
	if err != nil {
		return fmt.Errorf("habit %q not found", c.Name)
	}

	if c.Rename != "" {
		if _, err := ctx.Store.GetHabitByName(c.Rename); err == nil {
			return fmt.Errorf("habit with name %q already exists", c.Rename)
		}
		if !habit.SetName(c.Rename) {
			return errors.New("invalid habit name")
		}
	}
	if c.Time != "" {
		if !habit.SetTime(c.Time) {
			return fmt.Errorf("invalid time format: %s (expected HH:MM)", c.Time)
		}
		// Keep the rule's nominal time in step with the habit record.
		if rule, err := ctx.Store.GetRule(habit.ID); err == nil {
			rule.Time = habit.Time
			if err := ctx.Store.SaveRule(habit.ID, rule); err != nil {
				return err
			}
		}
	}
	if c.Priority >= 0 {
		habit.SetPriority(c.Priority)
	}
	if c.Notes != nil {
		habit.Notes = *c.Notes
		habit.Touch()
	}
	if c.Category != nil {
		habit.Category = *c.Category
		habit.Touch()
	}
	if c.Notify != nil {
		habit.NotificationEnabled = *c.Notify
		if *c.Notify && habit.NotificationID == "" {
			habit.NotificationID = uuid.New().String()
		}
		habit.Touch()
		syncReminder(ctx, habit)
	}

	if err := ctx.Store.UpdateHabit(habit); err != nil {
		return err
	}

	fmt.Printf("Updated habit: %s\n", habit.Name)
	return nil
}

// syncReminder arms or disarms the habit's one-shot tray timer after its
// notification settings change. The tray app is optional, so failures only
// log at debug.
func syncReminder(ctx *Context, h models.Habit) {
	if h.NotificationID == "" {
		return
	}
	sched := notifier.New()
	if !h.NotificationEnabled {
		if err := sched.Cancel(h.NotificationID); err != nil {
			logger.Debug("could not cancel reminder", "habit", h.Name, "error", err)
		}
		return
	}

	settings, err := ctx.Store.GetSettings()
	if err != nil {
		logger.Debug("could not load settings for reminder", "error", err)
		return
	}
	rules, err := ctx.Store.GetAllRules()
	if err != nil {
		logger.Debug("could not load rules for reminder", "error", err)
		return
	}

	now := time.Now()
	day := dateutil.Canonical(now)
	if !stats.DueOn(h, rules, now) || h.CompletedOn(day) {
		next, ok := h.NextAnchor()
		if !ok {
			return
		}
		day = next
	}

	timeOfDay := h.Time
	if timeOfDay == "" {
		timeOfDay = settings.DefaultTime
	}
	at, err := reminder.TriggerInstant(day, timeOfDay, settings.AdvanceMinutes, time.Local)
	if err != nil {
		logger.Debug("could not compute reminder instant", "habit", h.Name, "error", err)
		return
	}
	if err := sched.Schedule(h.NotificationID, at); err != nil {
		logger.Debug("could not schedule reminder", "habit", h.Name, "error", err)
	}
}

type HabitSnoozeCmd struct {
	Name    string `arg:"" help:"Habit name."`
	Minutes int    `help:"How long to push the reminder back." default:"10"`
}

func (c *HabitSnoozeCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}
	if c.Minutes < 1 {
		return fmt.Errorf("invalid snooze duration: %d minutes", c.Minutes)
	}

	habit, err := ctx.Store.GetHabitByName(c.Name)
	if err != nil {
		return fmt.Errorf("habit %q not found", c.Name)
	}

	habit.Snooze()
	if err := ctx.Store.UpdateHabit(habit); err != nil {
		return err
	}

	if habit.NotificationEnabled && habit.NotificationID != "" {
		at := time.Now().Add(time.Duration(c.Minutes) * time.Minute)
		if err := notifier.New().Schedule(habit.NotificationID, at); err != nil {
			logger.Debug("could not re-arm reminder", "habit", habit.Name, "error", err)
		}
	}

	fmt.Printf("Snoozed %q for %d minutes\n", habit.Name, c.Minutes)
	return nil
}

type HabitDeleteCmd struct {
	Name string `arg:"" help:"Habit name."`
}

func (c *HabitDeleteCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	habit, err := ctx.Store.GetHabitByName(c.Name)
	if err != nil {
		return fmt.Errorf("habit %q not found", c.Name)
	}

	if err := ctx.Store.DeleteRule(habit.ID); err != nil {
		return err
	}
	if err := ctx.Store.DeleteHabit(habit.ID); err != nil {
		return err
	}

	fmt.Printf("Deleted habit: %s\n", c.Name)
	return nil
}

type HabitPreviewCmd struct {
	Name  string `arg:"" help:"Habit name."`
	Limit int    `help:"Maximum number of occurrences to show." default:"10"`
}

func (c *HabitPreviewCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	habit, err := ctx.Store.GetHabitByName(c.Name)
	if err != nil {
		return fmt.Errorf("habit %q not found", c.Name)
	}

	rule, err := ctx.Store.GetRule(habit.ID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		rule = models.Rule{Kind: habit.Kind, StartDate: habit.Date, Time: habit.Time}
	}
	rule.Normalize()

	occs, err := recurrence.Generate(rule)
	if err != nil {
		return err
	}
	if len(occs) == 0 {
		fmt.Println("No occurrences.")
		return nil
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("%s (%s)", habit.Name, rule.Describe())))
	for i, occ := range occs {
		if i >= c.Limit {
			fmt.Printf("... and %d more\n", len(occs)-c.Limit)
			break
		}
		fmt.Printf("%s %s\n", occ.Day, mutedStyle.Render(occ.Time))
	}
	return nil
}

func resolveDay(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	day, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", s)
	}
	return day, nil
}
