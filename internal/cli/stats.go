package cli

import (
	"fmt"
	"time"

	"github.com/mkoval/trecker/internal/ledger"
	"github.com/mkoval/trecker/internal/stats"
)

type StatsCmd struct {
	Habit string `help:"Show detailed stats for one habit."`
}

func (c *StatsCmd) Run(ctx *Context) error {
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

	now := time.Now()

	if c.Habit != "" {
		habit, err := ctx.Store.GetHabitByName(c.Habit)
		if err != nil {
			return fmt.Errorf("habit %q not found", c.Habit)
		}
		rule := stats.EffectiveRule(habit, rules)

		fmt.Println(titleStyle.Render(habit.Name))
		fmt.Printf("Repeats:        %s\n", rule.Describe())
		fmt.Printf("Streak:         %d (best %d)\n", habit.Streak, habit.BestStreak)
		fmt.Printf("Completions:    %d\n", habit.TotalCompletions)
		fmt.Printf("Completion:     %d%%\n", ledger.CompletionPercentage(&habit, rule, now))
		if habit.SnoozeCount > 0 {
			fmt.Printf("Snoozes:        %d\n", habit.SnoozeCount)
		}
		return nil
	}

	summary := stats.Summarize(habits, rules, now)

	fmt.Println(titleStyle.Render("Statistics"))
	fmt.Printf("Habits:         %d\n", summary.TotalHabits)
	fmt.Printf("Due today:      %d\n", summary.DueToday)
	fmt.Printf("Done today:     %d (%d%%)\n", summary.CompletedToday, summary.CompletionRate)
	if summary.Overdue > 0 {
		fmt.Printf("Overdue:        %s\n", overdueStyle.Render(fmt.Sprintf("%d", summary.Overdue)))
	}
	fmt.Printf("Current streak: %d\n", summary.CurrentStreak)
	fmt.Printf("Best streak:    %d\n", summary.BestStreak)
	fmt.Printf("Completions:    %d\n", summary.TotalCompletions)
	return nil
}
