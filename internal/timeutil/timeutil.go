/*
Copyright (C) 2026 Munazzim Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package timeutil holds the clock-of-day value type and the cursor the
// planner walks across a day's timeline.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is a time of day with minute resolution, independent of any date.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM" or "HH.MM" into a Clock.
func ParseClock(value string) (Clock, error) {
	value = strings.TrimSpace(value)
	var sep string
	switch {
	case strings.Contains(value, ":"):
		sep = ":"
	case strings.Contains(value, "."):
		sep = "."
	default:
		return Clock{}, fmt.Errorf("unsupported time format: %s", value)
	}
	parts := strings.SplitN(value, sep, 2)
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return Clock{}, fmt.Errorf("unsupported time format: %s", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return Clock{}, fmt.Errorf("unsupported time format: %s", value)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("invalid time value: %s", value)
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

// MustClock is a test/default helper that panics on malformed input.
func MustClock(value string) Clock {
	c, err := ParseClock(value)
	if err != nil {
		panic(err)
	}
	return c
}

// String renders the clock as zero-padded "HH:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// At pins the clock to the calendar day of the given timestamp.
func (c Clock) At(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

// Before reports whether c is earlier in the day than other.
func (c Clock) Before(other Clock) bool {
	return c.Hour*60+c.Minute < other.Hour*60+other.Minute
}

// ParseDuration parses the duration notations accepted in configuration:
// "90m", "1.5h", "H:MM", "H.MM", or a bare integer meaning minutes.
func ParseDuration(value string) (time.Duration, error) {
	cleaned := strings.ToLower(strings.TrimSpace(value))
	switch {
	case strings.HasSuffix(cleaned, "m"):
		minutes, err := strconv.ParseFloat(strings.TrimSuffix(cleaned, "m"), 64)
		if err != nil {
			return 0, fmt.Errorf("unsupported duration format: %s", value)
		}
		return time.Duration(minutes * float64(time.Minute)), nil
	case strings.HasSuffix(cleaned, "h"):
		hours, err := strconv.ParseFloat(strings.TrimSuffix(cleaned, "h"), 64)
		if err != nil {
			return 0, fmt.Errorf("unsupported duration format: %s", value)
		}
		return time.Duration(hours * float64(time.Hour)), nil
	case strings.Contains(cleaned, ":"):
		return splitHoursMinutes(cleaned, ":")
	case strings.Contains(cleaned, "."):
		return splitHoursMinutes(cleaned, ".")
	}
	minutes, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, fmt.Errorf("unsupported duration format: %s", value)
	}
	return time.Duration(minutes) * time.Minute, nil
}

func splitHoursMinutes(cleaned, sep string) (time.Duration, error) {
	parts := strings.SplitN(cleaned, sep, 2)
	hours := 0
	if parts[0] != "" {
		parsed, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, fmt.Errorf("unsupported duration format: %s", cleaned)
		}
		hours = parsed
	}
	minutes := 0
	if parts[1] != "" {
		parsed, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, fmt.Errorf("unsupported duration format: %s", cleaned)
		}
		minutes = parsed
	}
	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
}

// FormatDuration renders a duration as "HH:MM", the notation used in
// validation messages and configuration round-trips.
func FormatDuration(d time.Duration) string {
	totalMinutes := int(d.Minutes())
	return fmt.Sprintf("%02d:%02d", totalMinutes/60, totalMinutes%60)
}

// DayOf truncates a timestamp to midnight of its calendar day.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Cursor walks through a day timeline. The anchor day never changes; the
// position only moves by explicit advances and jumps.
type Cursor struct {
	Day      time.Time
	Position time.Time
}

// NewCursor starts a cursor at the given clock on the given day.
func NewCursor(start Clock, day time.Time) *Cursor {
	anchor := DayOf(day)
	return &Cursor{Day: anchor, Position: start.At(anchor)}
}

// Advance consumes the duration and returns the interval it covered.
func (c *Cursor) Advance(d time.Duration) (start, end time.Time) {
	start = c.Position
	c.Position = c.Position.Add(d)
	return start, c.Position
}

// JumpTo moves the cursor to a clock time on the anchor day.
func (c *Cursor) JumpTo(moment Clock) {
	c.Position = moment.At(c.Day)
}
