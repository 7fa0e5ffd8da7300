/*
Copyright (C) 2026 Munazzim Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/munazzim/munazzim/internal/config"
	"github.com/munazzim/munazzim/internal/db"
	"github.com/munazzim/munazzim/internal/logging"
	"github.com/munazzim/munazzim/internal/prayer"
	"github.com/munazzim/munazzim/internal/templates"
)

var (
	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "munazzim",
	Short: "Munazzim - prayer-aware day planner",
	Long:  "Munazzim schedules your day around the five prayers from plaintext qalib templates.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Environment)
	for _, warn := range cfg.Warnings {
		logger.Warn().Msg(warn)
	}
	return nil
}

func loadTemplates() (*templates.Repository, error) {
	repo, err := templates.NewRepository(cfg.Planner.TemplateDir, logger)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	return repo, nil
}

// newPrayerService wires the provider, geolocator, and database-backed
// cache. A failed cache or database setup degrades to uncached lookups.
func newPrayerService() (*prayer.Service, func(), error) {
	if cfg.PrayerSettings.Provider != "aladhan" {
		logger.Warn().Str("provider", cfg.PrayerSettings.Provider).
			Msg("unknown prayer provider, using aladhan")
	}
	provider := prayer.NewAladhanProvider()
	geolocator := prayer.NewGeolocator()

	var (
		cache    *prayer.Cache
		database *gorm.DB
	)
	database, err := db.Connect(cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("prayer cache unavailable, continuing without it")
		database = nil
	} else {
		cache, err = prayer.NewCache(database, cfg.PrayerSettings.CacheDays)
		if err != nil {
			logger.Warn().Err(err).Msg("prayer cache migration failed, continuing without it")
			cache = nil
		}
	}

	cleanup := func() {
		if database != nil {
			if err := db.Close(database); err != nil {
				logger.Warn().Err(err).Msg("closing prayer cache database")
			}
		}
	}
	return prayer.NewService(cfg, provider, geolocator, cache, logger), cleanup, nil
}
