/*
Copyright (C) 2026 Munazzim Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package qalib

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/munazzim/munazzim/internal/models"
	"github.com/munazzim/munazzim/internal/timeutil"
)

const sampleTemplate = `# name: Sample Day
# description: Simple qalib for tests
05:00
.30 Warmup
- [5] Stretch :: Focus on posture
7:00 07:45 Breakfast
1 Study Block
`

func TestParseSampleTemplate(t *testing.T) {
	template, err := Parse(sampleTemplate, "Fallback")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if template.Name != "Sample Day" {
		t.Fatalf("name = %q", template.Name)
	}
	if !strings.HasPrefix(template.Description, "Simple qalib") {
		t.Fatalf("description = %q", template.Description)
	}
	if template.StartTime != (timeutil.Clock{Hour: 5}) {
		t.Fatalf("start time = %v", template.StartTime)
	}
	if len(template.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(template.Events))
	}

	relative := template.Events[0]
	if relative.Kind != models.KindRelative {
		t.Fatalf("first event kind = %v", relative.Kind)
	}
	if relative.Duration != 30*time.Minute {
		t.Fatalf("first event duration = %v", relative.Duration)
	}
	if len(relative.Tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(relative.Tasks))
	}
	task := relative.Tasks[0]
	if task.Label != "Stretch" || task.Note != "Focus on posture" {
		t.Fatalf("task = %+v", task)
	}
	if task.TotalOccurrences == nil || *task.TotalOccurrences != 5 {
		t.Fatalf("total occurrences = %v", task.TotalOccurrences)
	}
	if task.RemainingOccurrences == nil || *task.RemainingOccurrences != 5 {
		t.Fatalf("remaining occurrences = %v", task.RemainingOccurrences)
	}

	fixed := template.Events[1]
	if fixed.Kind != models.KindFixed {
		t.Fatalf("second event kind = %v", fixed.Kind)
	}
	if fixed.Anchor == nil || *fixed.Anchor != (timeutil.Clock{Hour: 7}) {
		t.Fatalf("fixed anchor = %v", fixed.Anchor)
	}
	if fixed.Duration != 45*time.Minute {
		t.Fatalf("fixed duration = %v", fixed.Duration)
	}

	if template.Events[2].Duration != time.Hour {
		t.Fatalf("last event duration = %v", template.Events[2].Duration)
	}
}

func TestRenderRoundTrip(t *testing.T) {
	template, err := Parse(sampleTemplate, "Fallback")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rendered := Render(template)
	regenerated, err := Parse(rendered, "Other")
	if err != nil {
		t.Fatalf("reparse: %v\nrendered:\n%s", err, rendered)
	}
	if regenerated.Name != template.Name {
		t.Fatalf("name = %q", regenerated.Name)
	}
	if regenerated.StartTime != template.StartTime {
		t.Fatalf("start time = %v", regenerated.StartTime)
	}
	if regenerated.Events[0].Duration != template.Events[0].Duration {
		t.Fatalf("event 0 duration = %v", regenerated.Events[0].Duration)
	}
	if regenerated.Events[1].Duration != template.Events[1].Duration {
		t.Fatalf("event 1 duration = %v", regenerated.Events[1].Duration)
	}
}

func TestParseFixedDurationEvents(t *testing.T) {
	template, err := Parse("05:00\n12:30 +2 Focus Block\n", "Fixed")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(template.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(template.Events))
	}
	fixed := template.Events[0]
	if fixed.Kind != models.KindFixed {
		t.Fatalf("kind = %v", fixed.Kind)
	}
	if fixed.Anchor == nil || *fixed.Anchor != (timeutil.Clock{Hour: 12, Minute: 30}) {
		t.Fatalf("anchor = %v", fixed.Anchor)
	}
	if fixed.Duration != 2*time.Hour {
		t.Fatalf("duration = %v", fixed.Duration)
	}
}

func TestParsePrayerBoundDurationEvents(t *testing.T) {
	template, err := Parse("05:00\nFajr +2 Dawn Study\n", "PrayerBound")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	bound := template.Events[0]
	if bound.Kind != models.KindPrayerBound {
		t.Fatalf("kind = %v", bound.Kind)
	}
	if bound.StartRef == nil || bound.StartRef.Kind != models.RefNamed || bound.StartRef.Prayer != models.Fajr {
		t.Fatalf("start ref = %v", bound.StartRef)
	}
	if bound.EndRef != nil {
		t.Fatalf("end ref should be nil, got %v", bound.EndRef)
	}
	if bound.Duration != 2*time.Hour {
		t.Fatalf("duration = %v", bound.Duration)
	}
}

func TestParsePrayerRangeEvents(t *testing.T) {
	template, err := Parse("05:00\nDhuhr..Asr Reading\n..Maghrib Run\n", "PrayerRange")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(template.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(template.Events))
	}
	first := template.Events[0]
	if first.StartRef == nil || first.StartRef.Prayer != models.Dhuhr {
		t.Fatalf("first start ref = %v", first.StartRef)
	}
	if first.EndRef == nil || first.EndRef.Prayer != models.Asr {
		t.Fatalf("first end ref = %v", first.EndRef)
	}
	second := template.Events[1]
	if second.StartRef != nil {
		t.Fatalf("second start ref should be nil, got %v", second.StartRef)
	}
	if second.EndRef == nil || second.EndRef.Prayer != models.Maghrib {
		t.Fatalf("second end ref = %v", second.EndRef)
	}
}

func TestParsePrayerOffsetRanges(t *testing.T) {
	template, err := Parse("05:00\n..Maghrib-50 Evening Prep\n", "PrayerOffset")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	event := template.Events[0]
	if event.StartRef != nil {
		t.Fatalf("start ref should be nil, got %v", event.StartRef)
	}
	ref := event.EndRef
	if ref == nil || ref.Kind != models.RefOffset || ref.Prayer != models.Maghrib || ref.OffsetMinutes != -50 {
		t.Fatalf("end ref = %v", ref)
	}
	if ref.String() != "Maghrib-50" {
		t.Fatalf("end ref rendered = %q", ref.String())
	}
}

func TestParsePromotesPrayerNames(t *testing.T) {
	for _, prayer := range models.CanonicalPrayers() {
		relative, err := Parse(fmt.Sprintf("05:00\n.15 %s\n", prayer), "Prayers")
		if err != nil {
			t.Fatalf("%s: parse: %v", prayer, err)
		}
		event := relative.Events[0]
		if event.Kind != models.KindPrayer || event.Prayer != prayer {
			t.Fatalf("%s: relative promotion = %+v", prayer, event)
		}
		if event.Duration != 15*time.Minute {
			t.Fatalf("%s: duration = %v", prayer, event.Duration)
		}
		if event.Anchor != nil {
			t.Fatalf("%s: relative prayer should have no anchor", prayer)
		}

		anchored, err := Parse(fmt.Sprintf("05:00\n06:30 06:45 %s\n", prayer), "Prayers2")
		if err != nil {
			t.Fatalf("%s: parse anchored: %v", prayer, err)
		}
		event = anchored.Events[0]
		if event.Kind != models.KindPrayer || event.Prayer != prayer {
			t.Fatalf("%s: anchored promotion = %+v", prayer, event)
		}
		if event.Anchor == nil || *event.Anchor != (timeutil.Clock{Hour: 6, Minute: 30}) {
			t.Fatalf("%s: anchor = %v", prayer, event.Anchor)
		}
		if event.Duration != 15*time.Minute {
			t.Fatalf("%s: anchored duration = %v", prayer, event.Duration)
		}
	}
}

func TestParseDuhrAlias(t *testing.T) {
	template, err := Parse("05:00\n.20 Duhr\n", "Alias")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	event := template.Events[0]
	if event.Kind != models.KindPrayer || event.Prayer != models.Dhuhr {
		t.Fatalf("alias promotion = %+v", event)
	}
}

func TestParsePrayerHeaders(t *testing.T) {
	template, err := Parse(`
# prayer_durations.fajr: 0:25
# prayer_durations.maghrib: 0:10
# prayer_overrides.asr: dhuhr + 5
# prayer_overrides.isha: 19:50
05:00
.30 Warmup
`, "PrayerHeaders")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if template.PrayerDurations["fajr"] != "0:25" {
		t.Fatalf("fajr duration = %q", template.PrayerDurations["fajr"])
	}
	if template.PrayerDurations["maghrib"] != "0:10" {
		t.Fatalf("maghrib duration = %q", template.PrayerDurations["maghrib"])
	}
	if template.PrayerOverrides["asr"] != "dhuhr + 5" {
		t.Fatalf("asr override = %q", template.PrayerOverrides["asr"])
	}
	if template.PrayerOverrides["isha"] != "19:50" {
		t.Fatalf("isha override = %q", template.PrayerOverrides["isha"])
	}
}

func TestParseHeadersWithoutHash(t *testing.T) {
	template, err := Parse("name: Plain Header\n05:00\n.30 Warmup\n", "Fallback")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if template.Name != "Plain Header" {
		t.Fatalf("name = %q", template.Name)
	}
}

func TestParseStripsInlineComments(t *testing.T) {
	template, err := Parse("05:00\n.30 Warmup # loosen up\n", "Comments")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if template.Events[0].Name != "Warmup" {
		t.Fatalf("name = %q", template.Events[0].Name)
	}
}

func TestParseDefaultNames(t *testing.T) {
	template, err := Parse("05:00\n.30\n07:00 07:30\n", "Defaults")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if template.Events[0].Name != "Block 1" {
		t.Fatalf("relative default name = %q", template.Events[0].Name)
	}
	if template.Events[1].Name != "Thabbat 2" {
		t.Fatalf("fixed default name = %q", template.Events[1].Name)
	}
}

func TestParseMissingWakeTime(t *testing.T) {
	_, err := Parse(".30 Warmup\n", "NoWake")
	if err == nil {
		t.Fatal("expected error for missing wake-up time")
	}
	if !strings.Contains(err.Error(), "missing wake-up start time") {
		t.Fatalf("error = %v", err)
	}
}

func TestParseRejectsBadDuration(t *testing.T) {
	_, err := Parse("05:00\nabc Warmup\n", "BadDuration")
	if err == nil {
		t.Fatal("expected error for non-duration token")
	}
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("error type = %T", err)
	}
	if pe.Line != 2 {
		t.Fatalf("error line = %d", pe.Line)
	}
	if !strings.Contains(pe.Reason, "'abc' is not a duration") {
		t.Fatalf("reason = %q", pe.Reason)
	}
}

func TestParseTaskBeforeEvent(t *testing.T) {
	_, err := Parse("05:00\n- [3] Orphan task\n", "Orphan")
	if err == nil {
		t.Fatal("expected error for task before any event")
	}
	if !strings.Contains(err.Error(), "task specified before any event") {
		t.Fatalf("error = %v", err)
	}
}

func TestParseMidnightWrapFixedEvent(t *testing.T) {
	template, err := Parse("05:00\n23:30 00:15 Night Watch\n", "Wrap")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if template.Events[0].Duration != 45*time.Minute {
		t.Fatalf("wrapped duration = %v", template.Events[0].Duration)
	}
}

func TestRenderSerializesAllForms(t *testing.T) {
	template, err := Parse(`# name: Full Day
# prayer_durations.fajr: 0:25
05:00
.30 Warmup
- [5] Stretch :: Focus on posture
- [] Hydrate
07:00 07:45 Breakfast
Fajr +2 Dawn Study
Dhuhr..Asr Reading
..Maghrib-50 Evening Prep
1.30 Deep Work
`, "Fallback")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rendered := Render(template)
	for _, want := range []string{
		"# name: Full Day",
		"# prayer_durations.fajr: 0:25",
		"05:00",
		".30 Warmup",
		"- [5] Stretch :: Focus on posture",
		"- [] Hydrate",
		"07:00 07:45 Breakfast",
		"Fajr +2 Dawn Study",
		"Dhuhr..Asr Reading",
		"..Maghrib-50 Evening Prep",
		"1.30 Deep Work",
	} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("rendered output missing %q:\n%s", want, rendered)
		}
	}
	if _, err := Parse(rendered, "RoundTrip"); err != nil {
		t.Fatalf("reparse: %v", err)
	}
}
