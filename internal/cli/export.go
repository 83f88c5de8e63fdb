package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/mkoval/trecker/internal/export"
)

type ExportCmd struct {
	Output string `short:"o" help:"Write the calendar to a file instead of stdout."`
}

func (c *ExportCmd) Run(ctx *Context) error {
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

	cal, err := export.Calendar(habits, rules, time.Local)
	if err != nil {
		return err
	}

	if c.Output == "" {
		fmt.Print(cal)
		return nil
	}

	if err := os.WriteFile(c.Output, []byte(cal), 0644); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	fmt.Printf("Exported %d habits to %s\n", len(habits), c.Output)
	return nil
}
