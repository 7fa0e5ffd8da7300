/*
Copyright (C) 2026 Munazzim Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package config loads process configuration from the munazzim YAML
// config file, with MUNAZZIM_* environment overrides for the
// operational knobs. Invalid values degrade to defaults and are
// reported as warnings rather than failing the load.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/munazzim/munazzim/internal/models"
	"github.com/munazzim/munazzim/internal/timeutil"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Location is where prayer times are calculated for.
type Location struct {
	City           string   `yaml:"city"`
	Country        string   `yaml:"country"`
	Latitude       *float64 `yaml:"latitude"`
	Longitude      *float64 `yaml:"longitude"`
	Timezone       string   `yaml:"timezone"`
	UseGeolocation bool     `yaml:"use_geolocation"`
}

// Planner holds template selection preferences.
type Planner struct {
	DefaultTemplate string            `yaml:"default_template"`
	DayStart        string            `yaml:"day_start"`
	TemplateDir     string            `yaml:"template_dir"`
	WeekTemplates   map[string]string `yaml:"week_templates"`
}

// PrayerSettings selects the prayer-time provider and its parameters.
type PrayerSettings struct {
	Provider          string `yaml:"provider"`
	CalculationMethod string `yaml:"calculation_method"`
	Madhab            string `yaml:"madhab"`
	CacheDays         int    `yaml:"cache_days"`
}

// Config is the loaded process configuration.
type Config struct {
	Location        Location          `yaml:"location"`
	Planner         Planner           `yaml:"planner"`
	PrayerSettings  PrayerSettings    `yaml:"prayer_settings"`
	Prayers         map[string]string `yaml:"prayers"`
	PrayerDurations map[string]string `yaml:"prayer_durations"`
	PrayerOverrides map[string]string `yaml:"prayer_overrides"`

	// Operational knobs, env-only.
	Environment string          `yaml:"-"`
	HTTPBind    string          `yaml:"-"`
	HTTPPort    int             `yaml:"-"`
	DBBackend   DatabaseBackend `yaml:"-"`
	DBDSN       string          `yaml:"-"`

	// Path the config was read from and collected degradation warnings.
	Path     string   `yaml:"-"`
	Warnings []string `yaml:"-"`
}

// DefaultPath is the config file location unless MUNAZZIM_CONFIG is set.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "munazzim", "config.yaml")
}

func defaultTemplateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "alqawalib"
	}
	return filepath.Join(home, ".config", "munazzim", "alqawalib")
}

func defaultDBDSN() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "prayer_times.db"
	}
	return filepath.Join(home, ".cache", "munazzim", "prayer_times.db")
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Location: Location{UseGeolocation: true},
		Planner: Planner{
			DayStart:      "05:00",
			TemplateDir:   defaultTemplateDir(),
			WeekTemplates: map[string]string{},
		},
		PrayerSettings: PrayerSettings{
			Provider:          "aladhan",
			CalculationMethod: "Diyanet",
			Madhab:            "Shafi",
			CacheDays:         90,
		},
		Prayers: map[string]string{
			"fajr":    "05:00",
			"dhuhr":   "12:30",
			"asr":     "15:30",
			"maghrib": "18:05",
			"isha":    "19:45",
		},
		PrayerDurations: map[string]string{},
		PrayerOverrides: map[string]string{},
		Environment:     "development",
		HTTPBind:        "127.0.0.1",
		HTTPPort:        8732,
		DBBackend:       DatabaseSQLite,
		DBDSN:           defaultDBDSN(),
	}
}

// Load reads the config file (writing defaults when it does not exist),
// applies environment overrides, and validates the result.
func Load() (*Config, error) {
	path := getEnv("MUNAZZIM_CONFIG", DefaultPath())
	cfg := Default()
	cfg.Path = path

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if writeErr := writeDefault(path, cfg); writeErr != nil {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("could not write default config: %v", writeErr))
		}
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.Environment = getEnv("MUNAZZIM_ENV", cfg.Environment)
	cfg.HTTPBind = getEnv("MUNAZZIM_HTTP_BIND", cfg.HTTPBind)
	cfg.HTTPPort = getEnvInt("MUNAZZIM_HTTP_PORT", cfg.HTTPPort)
	cfg.DBBackend = DatabaseBackend(getEnv("MUNAZZIM_DB_BACKEND", string(cfg.DBBackend)))
	cfg.DBDSN = getEnv("MUNAZZIM_DB_DSN", cfg.DBDSN)
	cfg.Planner.TemplateDir = getEnv("MUNAZZIM_TEMPLATE_DIR", cfg.Planner.TemplateDir)

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}
	cfg.normalize()
	return cfg, nil
}

// normalize fills gaps and degrades invalid values to defaults,
// collecting a warning for each.
func (c *Config) normalize() {
	if c.Planner.TemplateDir == "" {
		c.Planner.TemplateDir = defaultTemplateDir()
	}
	if c.Planner.DayStart == "" {
		c.Planner.DayStart = "05:00"
	} else if _, err := timeutil.ParseClock(c.Planner.DayStart); err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("invalid planner.day_start: %v", err))
		c.Planner.DayStart = "05:00"
	}
	if c.PrayerSettings.Provider == "" {
		c.PrayerSettings.Provider = "aladhan"
	}
	if c.PrayerSettings.CacheDays <= 0 {
		c.PrayerSettings.CacheDays = 90
	}
	normalized := map[string]string{}
	for key, value := range c.Planner.WeekTemplates {
		if value != "" {
			normalized[strings.ToLower(strings.TrimSpace(key))] = value
		}
	}
	c.Planner.WeekTemplates = normalized
	for key, value := range c.Prayers {
		if _, err := timeutil.ParseClock(value); err != nil {
			c.Warnings = append(c.Warnings, fmt.Sprintf("invalid prayer time %s in config: %v", key, err))
			delete(c.Prayers, key)
		}
	}
	for key, value := range c.PrayerDurations {
		if _, err := timeutil.ParseDuration(value); err != nil {
			c.Warnings = append(c.Warnings, fmt.Sprintf("invalid prayer_durations.%s: %v", key, err))
			delete(c.PrayerDurations, key)
		}
	}
}

// DayStart returns the planner day start as a clock value.
func (c *Config) DayStart() timeutil.Clock {
	clock, err := timeutil.ParseClock(c.Planner.DayStart)
	if err != nil {
		return timeutil.Clock{Hour: 5}
	}
	return clock
}

// StaticSchedule returns the configured fallback prayer schedule.
func (c *Config) StaticSchedule() models.PrayerSchedule {
	read := func(key, def string) timeutil.Clock {
		if value, ok := c.Prayers[key]; ok {
			if clock, err := timeutil.ParseClock(value); err == nil {
				return clock
			}
		}
		return timeutil.MustClock(def)
	}
	schedule := models.PrayerSchedule{
		Fajr:    read("fajr", "05:00"),
		Dhuhr:   read("dhuhr", "12:30"),
		Asr:     read("asr", "15:30"),
		Maghrib: read("maghrib", "18:05"),
		Isha:    read("isha", "19:45"),
	}
	if value, ok := c.Prayers["sunrise"]; ok {
		if clock, err := timeutil.ParseClock(value); err == nil {
			schedule.Sunrise = &clock
		}
	}
	return schedule
}

// Durations returns the configured prayer durations over the defaults.
func (c *Config) Durations() models.PrayerDurations {
	return models.DefaultPrayerDurations().Merge(c.PrayerDurations)
}

// TemplateForDay resolves the template name for a weekday, falling back
// to the planner default.
func (c *Config) TemplateForDay(weekday string) string {
	if name, ok := c.Planner.WeekTemplates[strings.ToLower(weekday)]; ok {
		return name
	}
	return c.Planner.DefaultTemplate
}

func writeDefault(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}
