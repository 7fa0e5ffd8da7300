/*
Copyright (C) 2026 Munazzim Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package prayer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/munazzim/munazzim/internal/models"
	"github.com/munazzim/munazzim/internal/timeutil"
)

// Override adjusts one prayer's time: either an absolute clock value or
// a shift relative to another prayer (or sunrise), e.g. "sunrise - 25".
type Override struct {
	Absolute *timeutil.Clock
	Base     string
	Minutes  int
}

var relativeOverride = regexp.MustCompile(`^([a-zA-Z_]+)\s*([+-])\s*(\d+)$`)

// ParseOverrides reads raw override strings keyed by prayer name.
// Unparseable entries are skipped.
func ParseOverrides(raw map[string]string) map[models.PrayerName]Override {
	out := map[models.PrayerName]Override{}
	for key, value := range raw {
		prayer, ok := models.NormalizePrayer(key)
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if clock, err := timeutil.ParseClock(value); err == nil {
			out[prayer] = Override{Absolute: &clock}
			continue
		}
		match := relativeOverride.FindStringSubmatch(value)
		if match == nil {
			continue
		}
		minutes, _ := strconv.Atoi(match[3])
		if match[2] == "-" {
			minutes = -minutes
		}
		out[prayer] = Override{Base: strings.ToLower(match[1]), Minutes: minutes}
	}
	return out
}

// ApplyOverrides returns the schedule with each configured override
// applied. Relative overrides against a missing base leave the prayer
// unchanged.
func ApplyOverrides(schedule models.PrayerSchedule, overrides map[models.PrayerName]Override) models.PrayerSchedule {
	if len(overrides) == 0 {
		return schedule
	}
	out := schedule
	for _, prayer := range models.CanonicalPrayers() {
		override, ok := overrides[prayer]
		if !ok {
			continue
		}
		resolved, ok := resolveOverride(schedule, override)
		if !ok {
			continue
		}
		switch prayer {
		case models.Fajr:
			out.Fajr = resolved
		case models.Dhuhr:
			out.Dhuhr = resolved
		case models.Asr:
			out.Asr = resolved
		case models.Maghrib:
			out.Maghrib = resolved
		case models.Isha:
			out.Isha = resolved
		}
	}
	return out
}

func resolveOverride(schedule models.PrayerSchedule, override Override) (timeutil.Clock, bool) {
	if override.Absolute != nil {
		return *override.Absolute, true
	}
	var base timeutil.Clock
	if override.Base == "sunrise" {
		if schedule.Sunrise == nil {
			return timeutil.Clock{}, false
		}
		base = *schedule.Sunrise
	} else {
		prayer, ok := models.NormalizePrayer(override.Base)
		if !ok {
			return timeutil.Clock{}, false
		}
		base, ok = schedule.TimeOf(prayer)
		if !ok {
			return timeutil.Clock{}, false
		}
	}
	shifted := base.At(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)).
		Add(time.Duration(override.Minutes) * time.Minute)
	return timeutil.Clock{Hour: shifted.Hour(), Minute: shifted.Minute()}, true
}
