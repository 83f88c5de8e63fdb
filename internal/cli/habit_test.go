package cli

import (
	"fmt"
	"testing"
	"time"

	"github.com/mkoval/trecker/internal/config"
	"github.com/mkoval/trecker/internal/models"
	"github.com/mkoval/trecker/internal/storage"
)

type fakeStore struct {
	settings storage.Settings
	habits   []models.Habit
	rules    map[int64]models.Rule
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		settings: storage.Settings{NotificationsEnabled: true, DefaultTime: "12:00"},
		rules:    make(map[int64]models.Rule),
	}
}

func (f *fakeStore) Init() error { return nil }
func (f *fakeStore) Load() error { return nil }
func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) GetSettings() (storage.Settings, error) { return f.settings, nil }
func (f *fakeStore) SaveSettings(s storage.Settings) error { f.settings = s; return nil }

func (f *fakeStore) NextID() (int64, error) {
	f.nextID++
	return f.nextID, nil
}

func (f *fakeStore) AddHabit(h models.Habit) error {
	f.habits = append(f.habits, h)
	return nil
}

func (f *fakeStore) GetHabit(id int64) (models.Habit, error) {
	for _, h := range f.habits {
		if h.ID == id {
			return h, nil
		}
	}
	return models.Habit{}, fmt.Errorf("habit %d: %w", id, storage.ErrNotFound)
}

func (f *fakeStore) GetHabitByName(name string) (models.Habit, error) {
	for _, h := range f.habits {
		if h.Name == name {
			return h, nil
		}
	}
	return models.Habit{}, fmt.Errorf("habit %q: %w", name, storage.ErrNotFound)
}

func (f *fakeStore) GetAllHabits() ([]models.Habit, error) { return f.habits, nil }

func (f *fakeStore) UpdateHabit(h models.Habit) error {
	for i := range f.habits {
		if f.habits[i].ID == h.ID {
			f.habits[i] = h
			return nil
		}
	}
	f.habits = append(f.habits, h)
	return nil
}

func (f *fakeStore) DeleteHabit(id int64) error {
	for i := range f.habits {
		if f.habits[i].ID == id {
			f.habits = append(f.habits[:i], f.habits[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("habit %d: %w", id, storage.ErrNotFound)
}

func (f *fakeStore) SaveRule(habitID int64, r models.Rule) error {
	f.rules[habitID] = r
	return nil
}

func (f *fakeStore) GetRule(habitID int64) (models.Rule, error) {
	r, ok := f.rules[habitID]
	if !ok {
		return models.Rule{}, fmt.Errorf("rule for habit %d: %w", habitID, storage.ErrNotFound)
	}
	return r, nil
}

func (f *fakeStore) GetAllRules() (map[int64]models.Rule, error) { return f.rules, nil }
func (f *fakeStore) DeleteRule(habitID int64) error { delete(f.rules, habitID); return nil }
func (f *fakeStore) GetConfigPath() string { return "" }

func testContext() (*Context, *fakeStore) {
	store := newFakeStore()
	return &Context{Store: store, Config: config.Config{
		Defaults: config.Defaults{Time: "12:00"},
	}}, store
}

func TestHabitAdd(t *testing.T) {
	ctx, store := testContext()

	cmd := &HabitAddCmd{Name: "morning run", Kind: "daily", Time: "07:00", Priority: 3, Every: 1, Unit: "days"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	habit, err := store.GetHabitByName("morning run")
	if err != nil {
		t.Fatalf("habit not stored: %v", err)
	}
	if habit.Kind != models.KindDaily || habit.Time != "07:00" {
		t.Errorf("unexpected habit: %+v", habit)
	}
	rule, err := store.GetRule(habit.ID)
	if err != nil {
		t.Fatalf("rule not stored: %v", err)
	}
	if rule.Kind != models.KindDaily || rule.StartDate != habit.Date {
		t.Errorf("unexpected rule: %+v", rule)
	}
}

func TestHabitAddDuplicateName(t *testing.T) {
	ctx, _ := testContext()

	cmd := &HabitAddCmd{Name: "read", Kind: "daily", Priority: 3, Every: 1, Unit: "days"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if err := cmd.Run(ctx); err == nil {
		t.Error("expected error for duplicate name")
	}
}

func TestHabitAddInvalidRule(t *testing.T) {
	ctx, _ := testContext()

	cmd := &HabitAddCmd{Name: "bad", Kind: "interval", Every: 0, Unit: "days", Priority: 3,
		Date: "2024-01-01"}
	if err := cmd.Run(ctx); err == nil {
		t.Error("expected error for zero interval count")
	}
}

func TestHabitAddIntervalRule(t *testing.T) {
	ctx, store := testContext()

	cmd := &HabitAddCmd{Name: "gym", Kind: "interval", Every: 3, Unit: "days", Priority: 3,
		Date: "2024-03-01"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	habit, _ := store.GetHabitByName("gym")
	rule, err := store.GetRule(habit.ID)
	if err != nil {
		t.Fatalf("rule not stored: %v", err)
	}
	if rule.IntervalCount != 3 || rule.IntervalUnit != models.UnitDays {
		t.Errorf("unexpected rule: %+v", rule)
	}
}

func TestHabitCompleteAndUncomplete(t *testing.T) {
	ctx, store := testContext()

	add := &HabitAddCmd{Name: "read", Kind: "daily", Priority: 3, Every: 1, Unit: "days"}
	if err := add.Run(ctx); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	complete := &HabitCompleteCmd{Name: "read", Date: "2024-01-05"}
	if err := complete.Run(ctx); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	habit, _ := store.GetHabitByName("read")
	if !habit.CompletedOn("2024-01-05") {
		t.Error("completion not recorded")
	}
	if habit.Streak != 1 || habit.TotalCompletions != 1 {
		t.Errorf("counters not updated: %+v", habit)
	}

	// Repeat completion keeps the set idempotent but bumps counters.
	if err := complete.Run(ctx); err != nil {
		t.Fatalf("repeat complete failed: %v", err)
	}
	habit, _ = store.GetHabitByName("read")
	if len(habit.CompletedDates) != 1 {
		t.Errorf("expected one completed date, got %v", habit.CompletedDates)
	}
	if habit.Streak != 2 || habit.TotalCompletions != 2 {
		t.Errorf("expected counters to increment on repeat: %+v", habit)
	}

	uncomplete := &HabitUncompleteCmd{Name: "read", Date: "2024-01-05"}
	if err := uncomplete.Run(ctx); err != nil {
		t.Fatalf("uncomplete failed: %v", err)
	}
	habit, _ = store.GetHabitByName("read")
	if habit.CompletedOn("2024-01-05") {
		t.Error("completion not retracted")
	}
}

func TestHabitCompleteUnknownHabit(t *testing.T) {
	ctx, _ := testContext()

	cmd := &HabitCompleteCmd{Name: "ghost"}
	if err := cmd.Run(ctx); err == nil {
		t.Error("expected error for unknown habit")
	}
}

func TestHabitEdit(t *testing.T) {
	ctx, store := testContext()

	add := &HabitAddCmd{Name: "read", Kind: "daily", Priority: 3, Every: 1, Unit: "days"}
	if err := add.Run(ctx); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	notes := "before bed"
	edit := &HabitEditCmd{Name: "read", Rename: "read fiction", Time: "21:30", Priority: 5, Notes: &notes}
	if err := edit.Run(ctx); err != nil {
		t.Fatalf("edit failed: %v", err)
	}

	habit, err := store.GetHabitByName("read fiction")
	if err != nil {
		t.Fatalf("renamed habit not found: %v", err)
	}
	if habit.Time != "21:30" || habit.Priority != 5 || habit.Notes != "before bed" {
		t.Errorf("edit not applied: %+v", habit)
	}

	rule, err := store.GetRule(habit.ID)
	if err != nil {
		t.Fatalf("rule missing: %v", err)
	}
	if rule.Time != "21:30" {
		t.Errorf("rule time not synced: %+v", rule)
	}
}

func TestHabitEditInvalidTime(t *testing.T) {
	ctx, _ := testContext()

	add := &HabitAddCmd{Name: "read", Kind: "daily", Priority: 3, Every: 1, Unit: "days"}
	if err := add.Run(ctx); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	edit := &HabitEditCmd{Name: "read", Time: "25:00"}
	if err := edit.Run(ctx); err == nil {
		t.Error("expected error for invalid time")
	}
}

func TestHabitDelete(t *testing.T) {
	ctx, store := testContext()

	add := &HabitAddCmd{Name: "read", Kind: "daily", Priority: 3, Every: 1, Unit: "days"}
	if err := add.Run(ctx); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	habit, _ := store.GetHabitByName("read")

	del := &HabitDeleteCmd{Name: "read"}
	if err := del.Run(ctx); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := store.GetHabitByName("read"); err == nil {
		t.Error("habit still present after delete")
	}
	if _, err := store.GetRule(habit.ID); err == nil {
		t.Error("rule still present after delete")
	}
}

func TestResolveDay(t *testing.T) {
	day, err := resolveDay("2024-02-29")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if day.Format("2006-01-02") != "2024-02-29" {
		t.Errorf("unexpected day: %v", day)
	}

	if _, err := resolveDay("02/29/2024"); err == nil {
		t.Error("expected error for wrong format")
	}

	day, err = resolveDay("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if day.Format("2006-01-02") != time.Now().Format("2006-01-02") {
		t.Errorf("empty date should resolve to today, got %v", day)
	}
}

func TestHabitSnooze(t *testing.T) {
	ctx, store := testContext()

	add := &HabitAddCmd{Name: "read", Kind: "daily", Priority: 3, Every: 1, Unit: "days"}
	if err := add.Run(ctx); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	snooze := &HabitSnoozeCmd{Name: "read", Minutes: 10}
	if err := snooze.Run(ctx); err != nil {
		t.Fatalf("snooze failed: %v", err)
	}
	if err := snooze.Run(ctx); err != nil {
		t.Fatalf("snooze failed: %v", err)
	}

	habit, err := store.GetHabitByName("read")
	if err != nil {
		t.Fatalf("habit not found: %v", err)
	}
	if habit.SnoozeCount != 2 {
		t.Errorf("SnoozeCount = %d, want 2", habit.SnoozeCount)
	}

	bad := &HabitSnoozeCmd{Name: "read", Minutes: 0}
	if err := bad.Run(ctx); err == nil {
		t.Error("expected error for zero snooze duration")
	}
	missing := &HabitSnoozeCmd{Name: "nope", Minutes: 10}
	if err := missing.Run(ctx); err == nil {
		t.Error("expected error for unknown habit")
	}
}
