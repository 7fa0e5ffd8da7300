/*
Copyright (C) 2026 Munazzim Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package prayer

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/munazzim/munazzim/internal/config"
	"github.com/munazzim/munazzim/internal/models"
)

// Service resolves the prayer schedule for a day: cache first, then the
// provider, then the configured static schedule as last resort.
// Configured overrides are applied to whatever source won.
type Service struct {
	cfg       *config.Config
	provider  Provider
	geolocate *Geolocator
	cache     *Cache
	overrides map[models.PrayerName]Override
	log       zerolog.Logger

	detected *Location
}

// NewService wires the collaborator. cache and geolocator may be nil;
// the service then skips those steps.
func NewService(cfg *config.Config, provider Provider, geolocator *Geolocator, cache *Cache, log zerolog.Logger) *Service {
	return &Service{
		cfg:       cfg,
		provider:  provider,
		geolocate: geolocator,
		cache:     cache,
		overrides: ParseOverrides(cfg.PrayerOverrides),
		log:       log.With().Str("component", "prayer").Logger(),
	}
}

// GetSchedule never fails: a provider or network error degrades to the
// configured static schedule.
func (s *Service) GetSchedule(ctx context.Context, day time.Time) models.PrayerSchedule {
	loc := s.resolveLocation(ctx)

	if s.cache != nil {
		if cached, ok := s.cache.Get(s.provider.Name(), day, loc); ok {
			return ApplyOverrides(cached, s.overrides)
		}
	}

	schedule, err := s.provider.Fetch(ctx, day, loc, Settings{
		CalculationMethod: s.cfg.PrayerSettings.CalculationMethod,
		Madhab:            s.cfg.PrayerSettings.Madhab,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("provider", s.provider.Name()).
			Msg("prayer fetch failed; using configured schedule")
		return ApplyOverrides(s.cfg.StaticSchedule(), s.overrides)
	}

	if s.cache != nil {
		if err := s.cache.Put(s.provider.Name(), day, loc, schedule); err != nil {
			s.log.Warn().Err(err).Msg("could not cache prayer schedule")
		}
	}
	return ApplyOverrides(schedule, s.overrides)
}

// resolveLocation prefers a detected location, falling back to the
// configured one. Detection runs once per service lifetime.
func (s *Service) resolveLocation(ctx context.Context) Location {
	if s.detected != nil {
		return *s.detected
	}
	loc := s.cfg.Location
	missingCoords := loc.Latitude == nil || loc.Longitude == nil || loc.Timezone == ""
	if s.geolocate != nil && (loc.UseGeolocation || missingCoords) {
		if detected, err := s.geolocate.Detect(ctx); err == nil {
			s.detected = detected
			s.log.Debug().
				Str("city", detected.City).
				Float64("lat", detected.Latitude).
				Float64("lon", detected.Longitude).
				Msg("detected location")
			return *detected
		} else {
			s.log.Debug().Err(err).Msg("geolocation failed")
		}
	}
	out := Location{City: loc.City, Country: loc.Country, Timezone: loc.Timezone}
	if loc.Latitude != nil {
		out.Latitude = *loc.Latitude
	}
	if loc.Longitude != nil {
		out.Longitude = *loc.Longitude
	}
	return out
}
