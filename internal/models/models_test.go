package models

import (
	"testing"
	"time"

	"github.com/munazzim/munazzim/internal/timeutil"
)

func TestNormalizePrayer(t *testing.T) {
	cases := map[string]PrayerName{
		"fajr":    Fajr,
		"Dhuhr":   Dhuhr,
		"DUHR":    Dhuhr,
		" asr ":   Asr,
		"maghrib": Maghrib,
		"Isha":    Isha,
	}
	for token, want := range cases {
		got, ok := NormalizePrayer(token)
		if !ok || got != want {
			t.Fatalf("NormalizePrayer(%q) = %q, %v", token, got, ok)
		}
	}
	if _, ok := NormalizePrayer("breakfast"); ok {
		t.Fatal("breakfast is not a prayer")
	}
}

func TestTimeRefString(t *testing.T) {
	cases := []struct {
		ref  TimeRef
		want string
	}{
		{TimeRef{Kind: RefAbsolute, At: timeutil.MustClock("09:30")}, "09:30"},
		{TimeRef{Kind: RefNamed, Prayer: Maghrib}, "Maghrib"},
		{TimeRef{Kind: RefOffset, Prayer: Maghrib, OffsetMinutes: -50}, "Maghrib-50"},
		{TimeRef{Kind: RefOffset, Prayer: Fajr, OffsetMinutes: 15}, "Fajr+15"},
	}
	for _, tc := range cases {
		if got := tc.ref.String(); got != tc.want {
			t.Fatalf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestEventCloneIsDeep(t *testing.T) {
	anchor := timeutil.MustClock("10:00")
	total := 3
	event := Event{
		Kind:     KindFixed,
		Name:     "Meeting",
		Anchor:   &anchor,
		StartRef: &TimeRef{Kind: RefNamed, Prayer: Asr},
		Tasks:    []Task{{Label: "Agenda", TotalOccurrences: &total}},
	}

	clone := event.Clone()
	clone.Anchor.Hour = 11
	clone.StartRef.Prayer = Isha
	clone.Tasks[0].Label = "Changed"

	if event.Anchor.Hour != 10 {
		t.Fatalf("anchor mutated: %v", event.Anchor)
	}
	if event.StartRef.Prayer != Asr {
		t.Fatalf("start ref mutated: %v", event.StartRef)
	}
	if event.Tasks[0].Label != "Agenda" {
		t.Fatalf("tasks mutated: %v", event.Tasks)
	}
}

func TestPrayerDurationsMerge(t *testing.T) {
	merged := DefaultPrayerDurations().Merge(map[string]string{
		"fajr":    "0:25",
		"duhr":    "30",
		"isha":    "garbage",
		"unknown": "10",
	})
	if merged.Fajr != 25*time.Minute {
		t.Fatalf("fajr = %v", merged.Fajr)
	}
	if merged.Dhuhr != 30*time.Minute {
		t.Fatalf("dhuhr = %v", merged.Dhuhr)
	}
	// Unparseable and unknown entries leave the defaults untouched.
	if merged.Isha != 20*time.Minute || merged.Asr != 15*time.Minute {
		t.Fatalf("merged = %+v", merged)
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		event Event
		want  string
	}{
		{Event{Kind: KindPrayer, Name: "Fajr Prayer"}, "Fajr Prayer (Prayer)"},
		{Event{Kind: KindFixed, Name: "Standup"}, "Standup (Fixed)"},
		{Event{Kind: KindRelative, Name: "Reading"}, "Reading"},
		{Event{Kind: KindPrayerBound, Name: "Dinner"}, "Dinner"},
	}
	for _, tc := range cases {
		item := ScheduledEvent{Event: tc.event}
		if got := item.DisplayName(); got != tc.want {
			t.Fatalf("DisplayName() = %q, want %q", got, tc.want)
		}
	}
}
