/*
Copyright (C) 2026 Munazzim Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package export

import (
	"fmt"
	"strings"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/munazzim/munazzim/internal/models"
)

// ToICal renders a scheduled day plan as an iCalendar document with one
// VEVENT per scheduled item. Events carry concrete timestamps so the
// output imports cleanly into any calendar client.
func ToICal(plan models.DayPlan) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//Munazzim//Day Planner//EN")
	cal.SetXWRCalName(plan.TemplateName)

	for _, item := range plan.Items {
		event := cal.AddEvent(fmt.Sprintf("%s@munazzim", uuid.NewString()))
		event.SetDtStampTime(item.Start)
		event.SetStartAt(item.Start)
		event.SetEndAt(item.End)
		event.SetSummary(item.DisplayName())
		if desc := taskDescription(item.Event.Tasks); desc != "" {
			event.SetDescription(desc)
		}
	}
	return cal.Serialize()
}

// taskDescription flattens an event's task list into one line per task,
// mirroring how the tasks appear in the plaintext template.
func taskDescription(tasks []models.Task) string {
	if len(tasks) == 0 {
		return ""
	}
	lines := make([]string, 0, len(tasks))
	for _, task := range tasks {
		line := "- " + task.Label
		if task.TotalOccurrences != nil && *task.TotalOccurrences > 1 {
			line = fmt.Sprintf("- [%d] %s", *task.TotalOccurrences, task.Label)
		}
		if task.Note != "" {
			line += " :: " + task.Note
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Filename derives a safe .ics file name from a plan, e.g.
// "deep-work-day-2025-03-10.ics".
func Filename(plan models.DayPlan) string {
	return fmt.Sprintf("%s-%s.ics", slugify(plan.TemplateName), plan.Date.Format("2006-01-02"))
}

func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
