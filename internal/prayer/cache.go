/*
Copyright (C) 2026 Munazzim Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package prayer

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/munazzim/munazzim/internal/models"
	"github.com/munazzim/munazzim/internal/timeutil"
)

// PrayerDay is one cached day of prayer times. Coordinates are rounded
// to three decimals so nearby fixes share cache entries.
type PrayerDay struct {
	ID        uint   `gorm:"primaryKey"`
	Provider  string `gorm:"uniqueIndex:idx_prayer_day;size:32"`
	Day       string `gorm:"uniqueIndex:idx_prayer_day;size:10"`
	Latitude  string `gorm:"uniqueIndex:idx_prayer_day;size:12"`
	Longitude string `gorm:"uniqueIndex:idx_prayer_day;size:12"`
	Fajr      string
	Dhuhr     string
	Asr       string
	Maghrib   string
	Isha      string
	Sunrise   string
	FetchedAt time.Time
}

// Cache persists fetched prayer schedules, keeping at most maxDays
// entries per provider and location.
type Cache struct {
	db      *gorm.DB
	maxDays int
}

// NewCache migrates the cache table and returns the cache.
func NewCache(db *gorm.DB, maxDays int) (*Cache, error) {
	if err := db.AutoMigrate(&PrayerDay{}); err != nil {
		return nil, fmt.Errorf("migrating prayer cache: %w", err)
	}
	if maxDays < 1 {
		maxDays = 1
	}
	return &Cache{db: db, maxDays: maxDays}, nil
}

func cacheCoords(loc Location) (lat, lon string) {
	return fmt.Sprintf("%.3f", loc.Latitude), fmt.Sprintf("%.3f", loc.Longitude)
}

// Get returns the cached schedule for the day, if present.
func (c *Cache) Get(provider string, day time.Time, loc Location) (models.PrayerSchedule, bool) {
	lat, lon := cacheCoords(loc)
	var row PrayerDay
	err := c.db.
		Where("provider = ? AND day = ? AND latitude = ? AND longitude = ?",
			provider, day.Format("2006-01-02"), lat, lon).
		First(&row).Error
	if err != nil {
		return models.PrayerSchedule{}, false
	}
	schedule, err := rowToSchedule(row)
	if err != nil {
		return models.PrayerSchedule{}, false
	}
	return schedule, true
}

// Put stores the schedule and prunes the oldest entries beyond the
// per-location budget.
func (c *Cache) Put(provider string, day time.Time, loc Location, schedule models.PrayerSchedule) error {
	lat, lon := cacheCoords(loc)
	row := PrayerDay{
		Provider:  provider,
		Day:       day.Format("2006-01-02"),
		Latitude:  lat,
		Longitude: lon,
		Fajr:      schedule.Fajr.String(),
		Dhuhr:     schedule.Dhuhr.String(),
		Asr:       schedule.Asr.String(),
		Maghrib:   schedule.Maghrib.String(),
		Isha:      schedule.Isha.String(),
		FetchedAt: time.Now().UTC(),
	}
	if schedule.Sunrise != nil {
		row.Sunrise = schedule.Sunrise.String()
	}

	err := c.db.
		Where("provider = ? AND day = ? AND latitude = ? AND longitude = ?", provider, row.Day, lat, lon).
		Delete(&PrayerDay{}).Error
	if err != nil {
		return err
	}
	if err := c.db.Create(&row).Error; err != nil {
		return err
	}
	return c.prune(provider, lat, lon)
}

func (c *Cache) prune(provider, lat, lon string) error {
	var rows []PrayerDay
	err := c.db.
		Select("id", "day").
		Where("provider = ? AND latitude = ? AND longitude = ?", provider, lat, lon).
		Order("day desc").
		Find(&rows).Error
	if err != nil {
		return err
	}
	if len(rows) <= c.maxDays {
		return nil
	}
	ids := make([]uint, 0, len(rows)-c.maxDays)
	for _, row := range rows[c.maxDays:] {
		ids = append(ids, row.ID)
	}
	return c.db.Delete(&PrayerDay{}, ids).Error
}

func rowToSchedule(row PrayerDay) (models.PrayerSchedule, error) {
	var schedule models.PrayerSchedule
	var err error
	if schedule.Fajr, err = timeutil.ParseClock(row.Fajr); err != nil {
		return schedule, err
	}
	if schedule.Dhuhr, err = timeutil.ParseClock(row.Dhuhr); err != nil {
		return schedule, err
	}
	if schedule.Asr, err = timeutil.ParseClock(row.Asr); err != nil {
		return schedule, err
	}
	if schedule.Maghrib, err = timeutil.ParseClock(row.Maghrib); err != nil {
		return schedule, err
	}
	if schedule.Isha, err = timeutil.ParseClock(row.Isha); err != nil {
		return schedule, err
	}
	if row.Sunrise != "" {
		if sunrise, err := timeutil.ParseClock(row.Sunrise); err == nil {
			schedule.Sunrise = &sunrise
		}
	}
	return schedule, nil
}
