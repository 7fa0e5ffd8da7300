/*
Copyright (C) 2026 Munazzim Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package validation checks a day template against a prayer schedule
// before planning. Hard issues abort planning; warnings are advisory.
package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/munazzim/munazzim/internal/models"
	"github.com/munazzim/munazzim/internal/timeutil"
)

// MinWakeBuffer is the required gap between wake-up and Fajr.
const MinWakeBuffer = 20 * time.Minute

// Error carries every hard issue found in a template.
type Error struct {
	Issues []string
}

func (e *Error) Error() string {
	return strings.Join(e.Issues, "\n")
}

// anchorDay pins all clock comparisons to one arbitrary day. Only
// relative ordering within the day matters.
var anchorDay = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Validate checks the template. It returns advisory warnings, or an
// *Error listing every hard issue.
func Validate(template models.DayTemplate, prayers models.PrayerSchedule) ([]string, error) {
	var issues, warnings []string
	issues = validateWakeTime(template, prayers, issues)
	issues = validatePrayerBounds(template, prayers, issues)
	issues = validateFixedEvents(template, issues)
	issues = validateTotalDuration(template, prayers, issues)
	warnings = warnRelativeRanges(template, prayers, warnings)
	if len(issues) > 0 {
		return nil, &Error{Issues: issues}
	}
	return warnings, nil
}

func validateWakeTime(template models.DayTemplate, prayers models.PrayerSchedule, issues []string) []string {
	wake := template.StartTime.At(anchorDay)
	fajr := prayers.Fajr.At(anchorDay)
	if wake.After(fajr.Add(-MinWakeBuffer)) {
		issues = append(issues,
			"Wake-up time must be at least 20 minutes before Fajr. Adjust your template's start_time.")
	}
	return issues
}

func validateFixedEvents(template models.DayTemplate, issues []string) []string {
	var fixed []models.Event
	for _, event := range template.Events {
		if event.Kind == models.KindFixed {
			fixed = append(fixed, event)
		}
	}
	sort.SliceStable(fixed, func(i, j int) bool {
		return fixed[i].Anchor.Before(*fixed[j].Anchor)
	})
	var lastEnd time.Time
	for _, event := range fixed {
		start := event.Anchor.At(anchorDay)
		end := start.Add(event.Duration)
		if !lastEnd.IsZero() && start.Before(lastEnd) {
			issues = append(issues,
				fmt.Sprintf("Fixed event '%s' overlaps with a previous Thabbat event.", event.Name))
		}
		if lastEnd.IsZero() || end.After(lastEnd) {
			lastEnd = end
		}
	}
	return issues
}

func validateTotalDuration(template models.DayTemplate, prayers models.PrayerSchedule, issues []string) []string {
	var total time.Duration
	var overageEvent string
	var overageAmount time.Duration
	cursor := template.StartTime.At(anchorDay)
	dayBudget := 24 * time.Hour

	for _, event := range template.Events {
		if event.Kind == models.KindPrayerBound {
			var duration time.Duration
			if event.EndRef != nil {
				start, ok := resolveRef(event.StartRef, prayers)
				if !ok {
					start = cursor
				}
				end, ok := resolveRef(event.EndRef, prayers)
				if !ok {
					continue
				}
				if !end.After(start) {
					end = end.Add(24 * time.Hour)
				}
				duration = end.Sub(start)
				if duration <= 0 {
					issues = append(issues,
						fmt.Sprintf("Event '%s' must have a positive duration.", event.Name))
				}
				total += duration
				cursor = end
			} else {
				duration = event.Duration
				if duration <= 0 {
					issues = append(issues,
						fmt.Sprintf("Event '%s' must have a positive duration.", event.Name))
				}
				total += duration
				cursor = cursor.Add(duration)
			}
			if overageEvent == "" && total > dayBudget {
				overageEvent = event.Name
				overageAmount = total - dayBudget
			}
			continue
		}

		if event.Duration <= 0 {
			issues = append(issues,
				fmt.Sprintf("Event '%s' must have a positive duration.", event.Name))
		}
		start := cursor
		switch event.Kind {
		case models.KindFixed:
			start = event.Anchor.At(anchorDay)
		case models.KindPrayer:
			if event.Anchor != nil {
				start = event.Anchor.At(anchorDay)
			} else if moment, ok := prayers.TimeOf(event.Prayer); ok {
				start = moment.At(anchorDay)
			}
		}
		total += event.Duration
		cursor = start.Add(event.Duration)
		if overageEvent == "" && total > dayBudget {
			overageEvent = event.Name
			overageAmount = total - dayBudget
		}
	}

	if total > dayBudget {
		if overageEvent != "" {
			issues = append(issues, fmt.Sprintf(
				"Template exceeds 24 hours of planned time. Total planned time is %s. '%s' pushes it over by %s.",
				timeutil.FormatDuration(total), overageEvent, timeutil.FormatDuration(overageAmount)))
		} else {
			issues = append(issues, "Template exceeds 24 hours of planned time.")
		}
	}
	return issues
}

func validatePrayerBounds(template models.DayTemplate, prayers models.PrayerSchedule, issues []string) []string {
	order := models.CanonicalPrayers()
	for _, event := range template.Events {
		if event.Kind == models.KindPrayer && event.Anchor != nil {
			base, ok := prayers.TimeOf(event.Prayer)
			if !ok {
				continue
			}
			idx := -1
			for i, name := range order {
				if name == event.Prayer {
					idx = i
					break
				}
			}
			anchorAt := event.Anchor.At(anchorDay)
			baseAt := base.At(anchorDay)
			if anchorAt.Before(baseAt) {
				issues = append(issues,
					fmt.Sprintf("Prayer '%s' is scheduled before its calculated start time.", event.Prayer))
			}
			if idx != -1 && idx+1 < len(order) {
				next, _ := prayers.TimeOf(order[idx+1])
				nextAt := next.At(anchorDay)
				if !anchorAt.Before(nextAt) {
					issues = append(issues,
						fmt.Sprintf("Prayer '%s' must be before the next prayer time.", event.Prayer))
				}
				if event.Duration > 0 && anchorAt.Add(event.Duration).After(nextAt) {
					issues = append(issues,
						fmt.Sprintf("Prayer '%s' exceeds the next prayer window.", event.Prayer))
				}
			}
		}
		if event.Kind == models.KindPrayerBound && event.EndRef != nil {
			duration, ok := resolveBoundDuration(event, prayers, template.StartTime)
			if ok && duration <= 0 {
				issues = append(issues,
					fmt.Sprintf("Event '%s' has an invalid prayer-bound range.", event.Name))
			}
		}
	}
	return issues
}

func resolveBoundDuration(event models.Event, prayers models.PrayerSchedule, fallbackStart timeutil.Clock) (time.Duration, bool) {
	start, ok := resolveRef(event.StartRef, prayers)
	if !ok {
		start = fallbackStart.At(anchorDay)
	}
	end, ok := resolveRef(event.EndRef, prayers)
	if !ok {
		if event.Duration <= 0 {
			return 0, false
		}
		end = start.Add(event.Duration)
	}
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}
	return end.Sub(start), true
}

func resolveRef(ref *models.TimeRef, prayers models.PrayerSchedule) (time.Time, bool) {
	if ref == nil {
		return time.Time{}, false
	}
	if ref.Kind == models.RefAbsolute {
		return ref.At.At(anchorDay), true
	}
	base, ok := prayers.TimeOf(ref.Prayer)
	if !ok {
		return time.Time{}, false
	}
	moment := base.At(anchorDay)
	if ref.Kind == models.RefOffset {
		moment = moment.Add(time.Duration(ref.OffsetMinutes) * time.Minute)
	}
	return moment, true
}

// warnRelativeRanges flags '..' ranges that wrap past midnight or that
// sweep over a fixed or anchored event.
func warnRelativeRanges(template models.DayTemplate, prayers models.PrayerSchedule, warnings []string) []string {
	cursor := template.StartTime.At(anchorDay)

	type fixedRef struct {
		name string
		at   time.Time
	}
	var fixedRefs []fixedRef
	for _, event := range template.Events {
		switch event.Kind {
		case models.KindFixed:
			fixedRefs = append(fixedRefs, fixedRef{event.Name, event.Anchor.At(anchorDay)})
		case models.KindPrayer:
			if event.Anchor != nil {
				fixedRefs = append(fixedRefs, fixedRef{event.Name, event.Anchor.At(anchorDay)})
			} else if moment, ok := prayers.TimeOf(event.Prayer); ok {
				fixedRefs = append(fixedRefs, fixedRef{event.Name, moment.At(anchorDay)})
			}
		}
	}

	for _, event := range template.Events {
		switch event.Kind {
		case models.KindPrayerBound:
			if event.EndRef == nil {
				cursor = cursor.Add(event.Duration)
				continue
			}
			start, ok := resolveRef(event.StartRef, prayers)
			if !ok {
				start = cursor
			}
			end, ok := resolveRef(event.EndRef, prayers)
			if !ok {
				continue
			}
			if !end.After(start) {
				warnings = append(warnings, fmt.Sprintf(
					"Event '%s' spans midnight in its '..' range; review for overlaps.", event.Name))
				end = end.Add(24 * time.Hour)
			}
			for _, other := range fixedRefs {
				if !other.at.Before(start) && other.at.Before(end) {
					warnings = append(warnings, fmt.Sprintf(
						"Event '%s' overlaps with '%s' due to its '..' range.", event.Name, other.name))
					break
				}
			}
			cursor = end
		case models.KindFixed:
			cursor = event.Anchor.At(anchorDay).Add(event.Duration)
		case models.KindPrayer:
			if event.Anchor != nil {
				cursor = event.Anchor.At(anchorDay).Add(event.Duration)
			} else if moment, ok := prayers.TimeOf(event.Prayer); ok {
				cursor = moment.At(anchorDay).Add(event.Duration)
			} else {
				cursor = cursor.Add(event.Duration)
			}
		default:
			cursor = cursor.Add(event.Duration)
		}
	}
	return warnings
}
