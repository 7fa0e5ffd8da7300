/*
Copyright (C) 2026 Munazzim Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package templates loads qalib day templates from the user's template
// directory and serves them by name.
package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/munazzim/munazzim/internal/models"
	"github.com/munazzim/munazzim/internal/qalib"
)

// Record is a loaded template plus where it came from.
type Record struct {
	Template models.DayTemplate
	Source   string
}

// LoadError is a per-file parse failure. Bad files never abort a
// reload; they are collected so the CLI can report them.
type LoadError struct {
	Path    string
	Message string
}

// Repository holds every template found in a directory.
type Repository struct {
	dir     string
	byName  map[string]Record
	loadErr []LoadError
	log     zerolog.Logger
}

// NewRepository loads every regular file in dir as a qalib template.
// The directory is created when missing.
func NewRepository(dir string, log zerolog.Logger) (*Repository, error) {
	r := &Repository{
		dir: dir,
		log: log.With().Str("component", "templates").Logger(),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the template directory from scratch.
func (r *Repository) Reload() error {
	r.byName = map[string]Record{}
	r.loadErr = nil
	if r.dir == "" {
		return nil
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("creating template directory: %w", err)
	}
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading template directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(r.dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			r.loadErr = append(r.loadErr, LoadError{Path: path, Message: err.Error()})
			continue
		}
		template, err := qalib.Parse(string(raw), fileStem(entry.Name()))
		if err != nil {
			r.log.Warn().Str("path", path).Err(err).Msg("skipping unparseable template")
			r.loadErr = append(r.loadErr, LoadError{Path: path, Message: err.Error()})
			continue
		}
		r.byName[template.Name] = Record{Template: template, Source: path}
	}
	r.log.Debug().Int("templates", len(r.byName)).Int("errors", len(r.loadErr)).Msg("reloaded templates")
	return nil
}

// Names lists loaded template names, sorted.
func (r *Repository) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the template with the given name.
func (r *Repository) Get(name string) (models.DayTemplate, error) {
	record, ok := r.byName[name]
	if !ok {
		return models.DayTemplate{}, fmt.Errorf("template '%s' not found", name)
	}
	return record.Template, nil
}

// Record returns the template together with its source path.
func (r *Repository) Record(name string) (Record, error) {
	record, ok := r.byName[name]
	if !ok {
		return Record{}, fmt.Errorf("template '%s' not found", name)
	}
	return record, nil
}

// Errors returns the per-file failures from the last reload.
func (r *Repository) Errors() []LoadError {
	out := make([]LoadError, len(r.loadErr))
	copy(out, r.loadErr)
	return out
}

// Dir returns the repository directory.
func (r *Repository) Dir() string {
	return r.dir
}

func fileStem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
