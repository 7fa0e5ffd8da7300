/*
Copyright (C) 2026 Munazzim Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package prayer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const ipapiEndpoint = "https://ipapi.co/json/"

// Geolocator resolves the user's approximate location from their IP.
type Geolocator struct {
	Endpoint string
	Client   *http.Client
}

// NewGeolocator returns a Geolocator against ipapi.co.
func NewGeolocator() *Geolocator {
	return &Geolocator{
		Endpoint: ipapiEndpoint,
		Client:   &http.Client{Timeout: 5 * time.Second},
	}
}

type ipapiResponse struct {
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	City        string   `json:"city"`
	Region      string   `json:"region"`
	CountryName string   `json:"country_name"`
	Country     string   `json:"country"`
	Timezone    string   `json:"timezone"`
}

// Detect queries the geolocation endpoint. Callers treat failure as
// "location unknown" and fall back to configured coordinates.
func (g *Geolocator) Detect(ctx context.Context) (*Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.Endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detecting location: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geolocation request failed with status %d", resp.StatusCode)
	}

	var payload ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding geolocation response: %w", err)
	}
	if payload.Latitude == nil || payload.Longitude == nil || payload.Timezone == "" {
		return nil, fmt.Errorf("geolocation response missing coordinates")
	}
	city := payload.City
	if city == "" {
		city = payload.Region
	}
	country := payload.CountryName
	if country == "" {
		country = payload.Country
	}
	return &Location{
		Latitude:  *payload.Latitude,
		Longitude: *payload.Longitude,
		City:      city,
		Country:   country,
		Timezone:  payload.Timezone,
	}, nil
}
