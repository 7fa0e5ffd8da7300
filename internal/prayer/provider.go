/*
Copyright (C) 2026 Munazzim Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package prayer resolves the day's prayer schedule: a remote provider
// fetches calculated times for a location, a gorm-backed cache keeps
// them around, and configured overrides adjust individual prayers.
package prayer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/munazzim/munazzim/internal/models"
	"github.com/munazzim/munazzim/internal/timeutil"
)

// Location is the geographic point prayer times are calculated for.
type Location struct {
	Latitude  float64
	Longitude float64
	City      string
	Country   string
	Timezone  string
}

// Settings selects the calculation parameters a provider uses.
type Settings struct {
	CalculationMethod string
	Madhab            string
}

// Provider fetches a prayer schedule for one day.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, day time.Time, loc Location, settings Settings) (models.PrayerSchedule, error)
}

const aladhanAPI = "https://api.aladhan.com/v1/timings"

// aladhanMethods maps calculation-method names to the AlAdhan API's
// numeric method identifiers.
var aladhanMethods = map[string]int{
	"Shia Ithna-Ansari": 0,
	"University of Islamic Sciences, Karachi": 1,
	"Islamic Society of North America":        2,
	"MuslimWorldLeague":                       3,
	"UmmAlQura":                               4,
	"EgyptianGeneralAuthority":                5,
	"Karachi":                                 1,
	"Diyanet":                                 13,
}

// AladhanProvider fetches prayer times from api.aladhan.com.
type AladhanProvider struct {
	BaseURL string
	Client  *http.Client
}

// NewAladhanProvider returns a provider with a 10 second timeout.
func NewAladhanProvider() *AladhanProvider {
	return &AladhanProvider{
		BaseURL: aladhanAPI,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *AladhanProvider) Name() string { return "aladhan" }

type aladhanResponse struct {
	Data struct {
		Timings map[string]string `json:"timings"`
	} `json:"data"`
}

// Fetch queries the timings endpoint for the given day.
func (p *AladhanProvider) Fetch(ctx context.Context, day time.Time, loc Location, settings Settings) (models.PrayerSchedule, error) {
	method, ok := aladhanMethods[settings.CalculationMethod]
	if !ok {
		if parsed, err := strconv.Atoi(settings.CalculationMethod); err == nil {
			method = parsed
		} else {
			method = aladhanMethods["MuslimWorldLeague"]
		}
	}
	school := 0
	if strings.EqualFold(settings.Madhab, "hanafi") {
		school = 1
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	params.Set("method", strconv.Itoa(method))
	params.Set("school", strconv.Itoa(school))

	endpoint := fmt.Sprintf("%s/%s?%s", p.BaseURL, day.Format("2006-01-02"), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.PrayerSchedule{}, err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return models.PrayerSchedule{}, fmt.Errorf("fetching prayer times: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.PrayerSchedule{}, fmt.Errorf("prayer times request failed with status %d", resp.StatusCode)
	}

	var payload aladhanResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.PrayerSchedule{}, fmt.Errorf("decoding prayer times: %w", err)
	}
	return scheduleFromTimings(payload.Data.Timings)
}

func scheduleFromTimings(timings map[string]string) (models.PrayerSchedule, error) {
	read := func(key, def string) (timeutil.Clock, error) {
		value := timings[key]
		if value == "" {
			value = def
		}
		return timeutil.ParseClock(sanitizeTime(value))
	}
	var schedule models.PrayerSchedule
	var err error
	if schedule.Fajr, err = read("Fajr", "05:00"); err != nil {
		return schedule, err
	}
	if schedule.Dhuhr, err = read("Dhuhr", "12:30"); err != nil {
		return schedule, err
	}
	if schedule.Asr, err = read("Asr", "15:30"); err != nil {
		return schedule, err
	}
	if schedule.Maghrib, err = read("Maghrib", "18:05"); err != nil {
		return schedule, err
	}
	if schedule.Isha, err = read("Isha", "19:45"); err != nil {
		return schedule, err
	}
	if raw := timings["Sunrise"]; raw != "" {
		if sunrise, err := timeutil.ParseClock(sanitizeTime(raw)); err == nil {
			schedule.Sunrise = &sunrise
		}
	}
	return schedule, nil
}

// sanitizeTime strips timezone decorations some responses carry, e.g.
// "05:02 (EET)" or "05:02+02:00".
func sanitizeTime(value string) string {
	value = strings.TrimSpace(value)
	if idx := strings.Index(value, " "); idx != -1 {
		value = value[:idx]
	}
	if idx := strings.Index(value, "+"); idx != -1 {
		value = value[:idx]
	}
	if idx := strings.Index(value, "-"); idx != -1 && strings.Count(value, ":") == 1 {
		tail := value[idx+1:]
		if _, err := strconv.Atoi(tail); err == nil {
			value = value[:idx]
		}
	}
	return value
}
