package recurrence

import (
	"testing"
	"time"

	"github.com/mkoval/trecker/internal/constants"
	"github.com/mkoval/trecker/internal/models"
)

func day(s string) time.Time {
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestIsOccurrenceOnce(t *testing.T) {
	rule := models.Rule{Kind: models.KindOnce, StartDate: "2024-06-15"}
	if !IsOccurrence(rule, day("2024-06-15")) {
		t.Error("expected anchor date to match")
	}
	if IsOccurrence(rule, day("2024-06-16")) {
		t.Error("expected other dates not to match")
	}
}

func TestIsOccurrenceDaily(t *testing.T) {
	rule := models.Rule{Kind: models.KindDaily, StartDate: "2024-01-01"}
	for _, d := range []string{"2024-01-01", "2024-05-20", "2030-12-31"} {
		if !IsOccurrence(rule, day(d)) {
			t.Errorf("expected daily rule to match %s", d)
		}
	}
}

func TestIsOccurrenceWeekly(t *testing.T) {
	// Anchor 2024-01-01 is a Monday.
	rule := models.Rule{Kind: models.KindWeekly, StartDate: "2024-01-01"}
	if !IsOccurrence(rule, day("2024-01-08")) {
		t.Error("expected following Monday to match")
	}
	if IsOccurrence(rule, day("2024-01-09")) {
		t.Error("expected Tuesday not to match")
	}
}

func TestIsOccurrenceMonthly(t *testing.T) {
	rule := models.Rule{Kind: models.KindMonthly, StartDate: "2024-01-15"}
	if !IsOccurrence(rule, day("2024-03-15")) {
		t.Error("expected same day-of-month to match")
	}
	if IsOccurrence(rule, day("2024-03-14")) {
		t.Error("expected different day-of-month not to match")
	}
}

func TestIsOccurrenceYearly(t *testing.T) {
	rule := models.Rule{Kind: models.KindYearly, StartDate: "2024-07-04"}
	if !IsOccurrence(rule, day("2027-07-04")) {
		t.Error("expected same month/day to match")
	}
	if IsOccurrence(rule, day("2027-08-04")) {
		t.Error("expected different month not to match")
	}
	if IsOccurrence(rule, day("2027-07-05")) {
		t.Error("expected different day not to match")
	}
}

func TestIsOccurrenceWeekdaysWeekends(t *testing.T) {
	wk := models.Rule{Kind: models.KindWeekdays, StartDate: "2024-01-01"}
	we := models.Rule{Kind: models.KindWeekends, StartDate: "2024-01-01"}

	friday := day("2024-01-05")
	saturday := day("2024-01-06")

	if !IsOccurrence(wk, friday) || IsOccurrence(wk, saturday) {
		t.Error("weekdays rule should match Friday and not Saturday")
	}
	if IsOccurrence(we, friday) || !IsOccurrence(we, saturday) {
		t.Error("weekends rule should match Saturday and not Friday")
	}
}

func TestIsOccurrenceDaysOfWeek(t *testing.T) {
	rule := models.Rule{
		Kind:       models.KindDaysOfWeek,
		StartDate:  "2024-01-01",
		DaysOfWeek: []time.Weekday{time.Tuesday, time.Thursday},
	}
	if !IsOccurrence(rule, day("2024-01-02")) {
		t.Error("expected Tuesday to match")
	}
	if IsOccurrence(rule, day("2024-01-03")) {
		t.Error("expected Wednesday not to match")
	}
}

func TestIsOccurrenceDaysOfWeekEmptyFallsBackToAnchor(t *testing.T) {
	rule := models.Rule{Kind: models.KindDaysOfWeek, StartDate: "2024-01-01"}
	if !IsOccurrence(rule, day("2024-01-01")) {
		t.Error("expected anchor-date fallback to match the anchor")
	}
	if IsOccurrence(rule, day("2024-01-02")) {
		t.Error("expected anchor-date fallback not to behave like daily")
	}
}

func TestIsOccurrenceInterval(t *testing.T) {
	rule := models.Rule{
		Kind:          models.KindInterval,
		StartDate:     "2024-03-01",
		IntervalCount: 3,
		IntervalUnit:  models.UnitDays,
	}
	hits := []string{"2024-03-01", "2024-03-04", "2024-03-07", "2024-03-10"}
	misses := []string{"2024-03-02", "2024-03-03", "2024-03-05"}

	for _, d := range hits {
		if !IsOccurrence(rule, day(d)) {
			t.Errorf("expected %s to be on an interval boundary", d)
		}
	}
	for _, d := range misses {
		if IsOccurrence(rule, day(d)) {
			t.Errorf("expected %s not to be on an interval boundary", d)
		}
	}

	if IsOccurrence(rule, day("2024-02-27")) {
		t.Error("expected dates before the anchor not to match")
	}
}

func TestIsOccurrenceIntervalWeeks(t *testing.T) {
	rule := models.Rule{
		Kind:          models.KindInterval,
		StartDate:     "2024-01-01",
		IntervalCount: 2,
		IntervalUnit:  models.UnitWeeks,
	}
	if !IsOccurrence(rule, day("2024-01-15")) {
		t.Error("expected two weeks after anchor to match")
	}
	if IsOccurrence(rule, day("2024-01-08")) {
		t.Error("expected one week after anchor not to match")
	}
}

func TestIsOccurrenceIntervalMonths(t *testing.T) {
	rule := models.Rule{
		Kind:          models.KindInterval,
		StartDate:     "2024-01-31",
		IntervalCount: 2,
		IntervalUnit:  models.UnitMonths,
	}
	// Month difference ignores day-of-month, so the clamped March date counts.
	if !IsOccurrence(rule, day("2024-03-31")) {
		t.Error("expected two months after anchor to match")
	}
	if IsOccurrence(rule, day("2024-02-29")) {
		t.Error("expected one month after anchor not to match")
	}
}

// Every date the generator emits must satisfy the predicate for the same
// rule. Weekly rules are checked without an explicit day set because the
// record-level predicate only compares against the anchor's weekday.
func TestGeneratorPredicateConsistency(t *testing.T) {
	rules := []models.Rule{
		{Kind: models.KindOnce, StartDate: "2024-06-15"},
		{Kind: models.KindDaily, StartDate: "2024-01-01", EndDate: "2024-02-01"},
		{Kind: models.KindWeekly, StartDate: "2024-01-03", EndDate: "2024-03-01"},
		{Kind: models.KindMonthly, StartDate: "2024-01-15", EndDate: "2024-06-15"},
		{Kind: models.KindYearly, StartDate: "2024-07-04"},
		{Kind: models.KindWeekdays, StartDate: "2024-01-01", EndDate: "2024-02-01"},
		{Kind: models.KindWeekends, StartDate: "2024-01-01", EndDate: "2024-02-01"},
		{Kind: models.KindDaysOfWeek, StartDate: "2024-01-01", EndDate: "2024-02-01",
			DaysOfWeek: []time.Weekday{time.Monday, time.Thursday}},
		{Kind: models.KindDaysOfMonth, StartDate: "2024-01-01", EndDate: "2024-04-01",
			DaysOfMonth: []int{1, 15, 28}},
		{Kind: models.KindInterval, StartDate: "2024-01-01", EndDate: "2024-06-01",
			IntervalCount: 5, IntervalUnit: models.UnitDays},
		{Kind: models.KindInterval, StartDate: "2024-01-01", EndDate: "2025-06-01",
			IntervalCount: 3, IntervalUnit: models.UnitMonths},
		{Kind: models.KindInterval, StartDate: "2024-01-01",
			IntervalCount: 2, IntervalUnit: models.UnitYears},
	}

	for _, rule := range rules {
		occs, err := Generate(rule)
		if err != nil {
			t.Fatalf("kind %s: unexpected error: %v", rule.Kind, err)
		}
		for _, o := range occs {
			if !IsOccurrence(rule, day(o.Day)) {
				t.Errorf("kind %s: generated %s but predicate rejects it", rule.Kind, o.Day)
			}
		}
	}
}

func TestIsOccurrenceNeverAliasBehavesAsOnce(t *testing.T) {
	rule := models.Rule{Kind: models.KindNever, StartDate: "2024-06-15"}
	if !IsOccurrence(rule, day("2024-06-15")) {
		t.Error("expected deprecated alias to match its anchor date")
	}
	if IsOccurrence(rule, day("2024-06-16")) {
		t.Error("expected deprecated alias not to match other dates")
	}
}

func TestIsOccurrenceIntervalLocalZoneCandidates(t *testing.T) {
	// The anchor parses at UTC midnight; candidates carrying wall-clock time
	// in an eastern zone must still land on the same interval boundaries.
	rule := models.Rule{Kind: models.KindInterval, StartDate: "2024-03-01",
		EndDate: "2024-03-31", IntervalCount: 3, IntervalUnit: models.UnitDays}
	loc := time.FixedZone("UTC+3", 3*60*60)

	occs, err := Generate(rule)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, o := range occs {
		d, err := time.ParseInLocation(constants.DateFormat, o.Day, loc)
		if err != nil {
			t.Fatalf("failed to parse %s: %v", o.Day, err)
		}
		if !IsOccurrence(rule, d) {
			t.Errorf("generated %s rejected at local midnight", o.Day)
		}
		if !IsOccurrence(rule, d.Add(9*time.Hour+30*time.Minute)) {
			t.Errorf("generated %s rejected at local morning", o.Day)
		}
	}

	offDay, err := time.ParseInLocation(constants.DateFormat, "2024-03-05", loc)
	if err != nil {
		t.Fatalf("failed to parse off day: %v", err)
	}
	if IsOccurrence(rule, offDay) {
		t.Error("expected 2024-03-05 not to match a 3-day interval from 2024-03-01")
	}
}
