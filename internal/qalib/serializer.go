/*
Copyright (C) 2026 Munazzim Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package qalib

import (
	"fmt"
	"strings"
	"time"

	"github.com/munazzim/munazzim/internal/models"
	"github.com/munazzim/munazzim/internal/timeutil"
)

// formatDurationToken renders a duration in the most compact qalib
// notation: "2" for whole hours, ".45" for bare minutes, "1.30" for a
// mix.
func formatDurationToken(d time.Duration) string {
	totalMinutes := int(d.Minutes())
	hours := totalMinutes / 60
	minutes := totalMinutes % 60
	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%d.%02d", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%d", hours)
	}
	return fmt.Sprintf(".%02d", minutes)
}

// Render serializes a template back to qalib plaintext. Parsing the
// output yields an equivalent template.
func Render(template models.DayTemplate) string {
	lines := []string{fmt.Sprintf("# name: %s", template.Name)}
	if template.Description != "" {
		lines = append(lines, fmt.Sprintf("# description: %s", template.Description))
	}
	lines = appendPrayerSettings(lines, "prayer_durations", template.PrayerDurations)
	lines = appendPrayerSettings(lines, "prayer_overrides", template.PrayerOverrides)
	lines = append(lines, template.StartTime.String())
	for _, event := range template.Events {
		switch event.Kind {
		case models.KindFixed:
			end := fixedEndClock(*event.Anchor, event.Duration)
			lines = append(lines, strings.TrimRight(
				fmt.Sprintf("%s %s %s", event.Anchor.String(), end.String(), event.Name), " "))
		case models.KindPrayerBound:
			lines = append(lines, formatPrayerBound(event))
		default:
			lines = append(lines, strings.TrimRight(
				fmt.Sprintf("%s %s", formatDurationToken(event.Duration), event.Name), " "))
		}
		for _, task := range event.Tasks {
			lines = append(lines, formatTask(task))
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
}

func appendPrayerSettings(lines []string, prefix string, settings map[string]string) []string {
	if len(settings) == 0 {
		return lines
	}
	for _, prayer := range models.CanonicalPrayers() {
		key := strings.ToLower(string(prayer))
		if value := settings[key]; value != "" {
			lines = append(lines, fmt.Sprintf("# %s.%s: %s", prefix, key, value))
		}
	}
	return lines
}

func fixedEndClock(anchor timeutil.Clock, d time.Duration) timeutil.Clock {
	total := (anchor.Hour*60 + anchor.Minute + int(d.Minutes())) % (24 * 60)
	return timeutil.Clock{Hour: total / 60, Minute: total % 60}
}

func formatPrayerBound(event models.Event) string {
	startText := ""
	if event.StartRef != nil {
		startText = event.StartRef.String()
	}
	if event.EndRef != nil {
		return strings.TrimSpace(fmt.Sprintf("%s..%s %s", startText, event.EndRef.String(), event.Name))
	}
	return strings.TrimSpace(fmt.Sprintf("%s +%s %s", startText, formatDurationToken(event.Duration), event.Name))
}

func formatTask(task models.Task) string {
	prefix := "-"
	occurrences := task.TotalOccurrences
	if occurrences == nil {
		occurrences = task.RemainingOccurrences
	}
	if occurrences != nil {
		prefix += fmt.Sprintf(" [%d]", *occurrences)
	} else {
		prefix += " []"
	}
	body := task.Label
	if task.Note != "" {
		body = fmt.Sprintf("%s :: %s", body, task.Note)
	}
	return strings.TrimRight(fmt.Sprintf("%s %s", prefix, body), " ")
}
