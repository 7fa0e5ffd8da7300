/*
Copyright (C) 2026 Munazzim Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduler

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/munazzim/munazzim/internal/models"
	"github.com/munazzim/munazzim/internal/qalib"
	"github.com/munazzim/munazzim/internal/timeutil"
)

var testDay = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func testSchedule() models.PrayerSchedule {
	return models.PrayerSchedule{
		Fajr:    timeutil.MustClock("05:00"),
		Dhuhr:   timeutil.MustClock("09:30"),
		Asr:     timeutil.MustClock("15:30"),
		Maghrib: timeutil.MustClock("19:00"),
		Isha:    timeutil.MustClock("21:00"),
	}
}

func testScheduler() *Scheduler {
	durations := models.PrayerDurations{
		Fajr:    10 * time.Minute,
		Dhuhr:   10 * time.Minute,
		Asr:     10 * time.Minute,
		Maghrib: 10 * time.Minute,
		Isha:    10 * time.Minute,
	}
	return New(durations, zerolog.Nop())
}

func prayerItems(plan models.DayPlan, prayer models.PrayerName) []models.ScheduledEvent {
	var out []models.ScheduledEvent
	for _, item := range plan.Items {
		if item.Event.Kind == models.KindPrayer && item.Event.Prayer == prayer {
			out = append(out, item)
		}
	}
	return out
}

func clockOf(t time.Time) string {
	return t.Format("15:04")
}

func TestPrayerScheduledAfterFixedEvent(t *testing.T) {
	anchor := timeutil.MustClock("09:00")
	template := models.DayTemplate{
		Name:      "Thabbat",
		StartTime: timeutil.MustClock("08:00"),
		Events: []models.Event{
			{Kind: models.KindRelative, Name: "Prep", Duration: time.Hour, Flexible: true},
			{Kind: models.KindFixed, Name: "Lecture", Duration: time.Hour, Anchor: &anchor},
			{Kind: models.KindRelative, Name: "Study", Duration: time.Hour, Flexible: true},
		},
	}
	plan := testScheduler().BuildPlan(template, testDay, testSchedule())

	dhuhr := prayerItems(plan, models.Dhuhr)
	if len(dhuhr) != 1 {
		t.Fatalf("expected 1 Dhuhr item, got %d", len(dhuhr))
	}
	if clockOf(dhuhr[0].Start) != "10:00" || clockOf(dhuhr[0].End) != "10:10" {
		t.Fatalf("Dhuhr scheduled %s-%s", clockOf(dhuhr[0].Start), clockOf(dhuhr[0].End))
	}
}

func TestPlaceholderResolvesToPrayerSlot(t *testing.T) {
	template := models.DayTemplate{
		Name:      "PrayerTemplate",
		StartTime: timeutil.MustClock("04:30"),
		Events: []models.Event{
			{Kind: models.KindPrayer, Name: "Fajr Prayer", Prayer: models.Fajr, Duration: 15 * time.Minute},
		},
	}
	plan := testScheduler().BuildPlan(template, testDay, testSchedule())

	fajr := prayerItems(plan, models.Fajr)
	if len(fajr) != 1 {
		t.Fatalf("expected 1 Fajr item, got %d", len(fajr))
	}
	if clockOf(fajr[0].Start) != "05:00" {
		t.Fatalf("Fajr start = %s", clockOf(fajr[0].Start))
	}
	if fajr[0].End.Sub(fajr[0].Start) != 15*time.Minute {
		t.Fatalf("Fajr duration = %v", fajr[0].End.Sub(fajr[0].Start))
	}
}

func TestPlaceholdersAllPrayers(t *testing.T) {
	expected := map[models.PrayerName]string{
		models.Fajr:    "05:00",
		models.Dhuhr:   "09:30",
		models.Asr:     "15:30",
		models.Maghrib: "19:00",
		models.Isha:    "21:00",
	}
	for _, prayer := range models.CanonicalPrayers() {
		template := models.DayTemplate{
			Name:      string(prayer) + "Template",
			StartTime: timeutil.MustClock("04:00"),
			Events: []models.Event{
				{Kind: models.KindPrayer, Name: string(prayer) + " Prayer", Prayer: prayer, Duration: 10 * time.Minute},
			},
		}
		plan := testScheduler().BuildPlan(template, testDay, testSchedule())
		items := prayerItems(plan, prayer)
		if len(items) != 1 {
			t.Fatalf("%s: expected 1 item, got %d", prayer, len(items))
		}
		if clockOf(items[0].Start) != expected[prayer] {
			t.Fatalf("%s: start = %s, want %s", prayer, clockOf(items[0].Start), expected[prayer])
		}
		if items[0].End.Sub(items[0].Start) != 10*time.Minute {
			t.Fatalf("%s: duration = %v", prayer, items[0].End.Sub(items[0].Start))
		}
	}
}

func TestLatePlaceholderCorrectsScheduledPrayer(t *testing.T) {
	template := models.DayTemplate{
		Name:      "DelayedPrayer",
		StartTime: timeutil.MustClock("04:00"),
		Events: []models.Event{
			{Kind: models.KindRelative, Name: "Prep", Duration: time.Hour, Flexible: true},
			{Kind: models.KindRelative, Name: "Read", Duration: time.Hour, Flexible: true},
			{Kind: models.KindPrayer, Name: "Fajr", Prayer: models.Fajr, Duration: 20 * time.Minute},
		},
	}
	plan := testScheduler().BuildPlan(template, testDay, testSchedule())

	fajr := prayerItems(plan, models.Fajr)
	if len(fajr) != 1 {
		t.Fatalf("expected 1 Fajr item, got %d", len(fajr))
	}
	if fajr[0].End.Sub(fajr[0].Start) != 20*time.Minute {
		t.Fatalf("Fajr duration = %v", fajr[0].End.Sub(fajr[0].Start))
	}
}

func TestParsedPlaceholderAppliesOverride(t *testing.T) {
	template, err := qalib.Parse("04:00\n1 Prep\n.20 Fajr\n", "qtest")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	plan := testScheduler().BuildPlan(template, testDay, testSchedule())

	fajr := prayerItems(plan, models.Fajr)
	if len(fajr) != 1 {
		t.Fatalf("expected 1 Fajr item, got %d", len(fajr))
	}
	if fajr[0].End.Sub(fajr[0].Start) != 20*time.Minute {
		t.Fatalf("Fajr duration = %v", fajr[0].End.Sub(fajr[0].Start))
	}
}

func TestParsedPlaceholderAllPrayers(t *testing.T) {
	for _, prayer := range models.CanonicalPrayers() {
		raw := fmt.Sprintf("04:00\n1 Prep\n.15 %s\n", prayer)
		template, err := qalib.Parse(raw, "q_"+string(prayer))
		if err != nil {
			t.Fatalf("%s: parse: %v", prayer, err)
		}
		plan := testScheduler().BuildPlan(template, testDay, testSchedule())
		items := prayerItems(plan, prayer)
		if len(items) != 1 {
			t.Fatalf("%s: expected 1 item, got %d", prayer, len(items))
		}
		if items[0].End.Sub(items[0].Start) != 15*time.Minute {
			t.Fatalf("%s: duration = %v", prayer, items[0].End.Sub(items[0].Start))
		}
	}
}

func TestRelativeEventSplitsAroundPrayer(t *testing.T) {
	durations := models.DefaultPrayerDurations()
	durations.Fajr = 10 * time.Minute
	s := New(durations, zerolog.Nop())
	template := models.DayTemplate{
		Name:      "Split",
		StartTime: timeutil.MustClock("05:00"),
		Events: []models.Event{
			{Kind: models.KindRelative, Name: "Warmup", Duration: 20 * time.Minute, Flexible: true},
		},
	}
	schedule := testSchedule()
	schedule.Fajr = timeutil.MustClock("05:10")
	plan := s.BuildPlan(template, testDay, schedule)

	if len(plan.Items) < 3 {
		t.Fatalf("expected at least 3 items, got %d", len(plan.Items))
	}
	first, second, third := plan.Items[0], plan.Items[1], plan.Items[2]
	if first.Event.Name != "Warmup" || clockOf(first.Start) != "05:00" || clockOf(first.End) != "05:10" {
		t.Fatalf("first chunk = %s %s-%s", first.Event.Name, clockOf(first.Start), clockOf(first.End))
	}
	if second.Event.Prayer != models.Fajr || clockOf(second.Start) != "05:10" || clockOf(second.End) != "05:20" {
		t.Fatalf("prayer = %s %s-%s", second.Event.Name, clockOf(second.Start), clockOf(second.End))
	}
	if third.Event.Name != "Warmup" || clockOf(third.Start) != "05:20" || clockOf(third.End) != "05:30" {
		t.Fatalf("second chunk = %s %s-%s", third.Event.Name, clockOf(third.Start), clockOf(third.End))
	}
	if first.Event.Duration != 10*time.Minute || third.Event.Duration != 10*time.Minute {
		t.Fatalf("chunk durations = %v, %v", first.Event.Duration, third.Event.Duration)
	}
}

func TestEmptyTemplateStillSchedulesAllPrayers(t *testing.T) {
	template := models.DayTemplate{Name: "Empty", StartTime: timeutil.MustClock("05:00")}
	plan := testScheduler().BuildPlan(template, testDay, testSchedule())

	if len(plan.Items) != 5 {
		t.Fatalf("expected 5 prayer items, got %d", len(plan.Items))
	}
	for idx, prayer := range models.CanonicalPrayers() {
		item := plan.Items[idx]
		if item.Event.Prayer != prayer {
			t.Fatalf("item %d = %s, want %s", idx, item.Event.Prayer, prayer)
		}
		if item.Event.Name != string(prayer)+" Prayer" {
			t.Fatalf("item %d name = %q", idx, item.Event.Name)
		}
	}
}

func TestPrayerBoundRangeBetweenPrayers(t *testing.T) {
	template, err := qalib.Parse("05:00\nDhuhr..Asr Reading\n", "Range")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	plan := testScheduler().BuildPlan(template, testDay, testSchedule())

	var reading *models.ScheduledEvent
	for i := range plan.Items {
		if plan.Items[i].Event.Name == "Reading" {
			reading = &plan.Items[i]
			break
		}
	}
	if reading == nil {
		t.Fatal("Reading not scheduled")
	}
	if clockOf(reading.Start) != "09:30" || clockOf(reading.End) != "15:30" {
		t.Fatalf("Reading scheduled %s-%s", clockOf(reading.Start), clockOf(reading.End))
	}
	// Asr starts where the bound block ends, not inside it.
	asr := prayerItems(plan, models.Asr)
	if len(asr) != 1 || clockOf(asr[0].Start) != "15:30" {
		t.Fatalf("Asr = %+v", asr)
	}
}

func TestPrayerBoundMidnightWrap(t *testing.T) {
	template, err := qalib.Parse("05:00\n23:30..00:30 Night Shift\n", "Wrap")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	plan := testScheduler().BuildPlan(template, testDay, testSchedule())

	var shift *models.ScheduledEvent
	for i := range plan.Items {
		if plan.Items[i].Event.Name == "Night Shift" {
			shift = &plan.Items[i]
			break
		}
	}
	if shift == nil {
		t.Fatal("Night Shift not scheduled")
	}
	if shift.End.Sub(shift.Start) != time.Hour {
		t.Fatalf("wrapped duration = %v", shift.End.Sub(shift.Start))
	}
}

func TestFixedEventPushesPendingPrayers(t *testing.T) {
	anchor := timeutil.MustClock("09:15")
	template := models.DayTemplate{
		Name:      "Push",
		StartTime: timeutil.MustClock("08:00"),
		Events: []models.Event{
			{Kind: models.KindFixed, Name: "Meeting", Duration: time.Hour, Anchor: &anchor},
		},
	}
	plan := testScheduler().BuildPlan(template, testDay, testSchedule())

	// Dhuhr (09:30) falls inside the meeting and must start at its end.
	dhuhr := prayerItems(plan, models.Dhuhr)
	if len(dhuhr) != 1 || clockOf(dhuhr[0].Start) != "10:15" {
		t.Fatalf("Dhuhr = %+v", dhuhr)
	}
}

func TestTemplateDurationHeaderOverridesPrayerLength(t *testing.T) {
	template := models.DayTemplate{
		Name:            "Headers",
		StartTime:       timeutil.MustClock("05:00"),
		PrayerDurations: map[string]string{"fajr": "0:25"},
	}
	plan := testScheduler().BuildPlan(template, testDay, testSchedule())

	fajr := prayerItems(plan, models.Fajr)
	if len(fajr) != 1 {
		t.Fatalf("expected 1 Fajr item, got %d", len(fajr))
	}
	if fajr[0].End.Sub(fajr[0].Start) != 25*time.Minute {
		t.Fatalf("Fajr duration = %v", fajr[0].End.Sub(fajr[0].Start))
	}
}
