// Package models defines the planning domain: day templates, their events
// and sub-tasks, prayer schedules, and the generated day plan.
package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/munazzim/munazzim/internal/timeutil"
)

// PrayerName is one of the five canonical daily prayers.
type PrayerName string

const (
	Fajr    PrayerName = "Fajr"
	Dhuhr   PrayerName = "Dhuhr"
	Asr     PrayerName = "Asr"
	Maghrib PrayerName = "Maghrib"
	Isha    PrayerName = "Isha"
)

// CanonicalPrayers returns the five prayers in day order.
func CanonicalPrayers() []PrayerName {
	return []PrayerName{Fajr, Dhuhr, Asr, Maghrib, Isha}
}

// prayerAliases maps lowercase spellings (including the common "duhr"
// variant) to canonical names.
var prayerAliases = map[string]PrayerName{
	"fajr":    Fajr,
	"dhuhr":   Dhuhr,
	"duhr":    Dhuhr,
	"asr":     Asr,
	"maghrib": Maghrib,
	"isha":    Isha,
}

// NormalizePrayer resolves a token to a canonical prayer name,
// case-insensitively and alias-aware.
func NormalizePrayer(token string) (PrayerName, bool) {
	name, ok := prayerAliases[strings.ToLower(strings.TrimSpace(token))]
	return name, ok
}

// EventKind discriminates the closed set of event variants. Every
// consumer switches exhaustively on it.
type EventKind int

const (
	KindRelative EventKind = iota
	KindFixed
	KindPrayer
	KindPrayerBound
)

func (k EventKind) String() string {
	switch k {
	case KindRelative:
		return "relative"
	case KindFixed:
		return "fixed"
	case KindPrayer:
		return "prayer"
	case KindPrayerBound:
		return "prayer_bound"
	}
	return "unknown"
}

// Task is a checklist entry attached to an event. Progress bookkeeping
// lives outside this package; templates only declare the totals.
type Task struct {
	Label                string
	Note                 string
	TotalOccurrences     *int
	RemainingOccurrences *int
}

// RefKind discriminates the ways a prayer-bound edge can be expressed.
type RefKind int

const (
	RefAbsolute RefKind = iota // explicit clock time
	RefNamed                   // bare prayer name
	RefOffset                  // prayer name with a signed minute offset
)

// TimeRef is one edge of a prayer-bound range: an absolute time of day, a
// prayer name, or a prayer name shifted by whole minutes ("Maghrib-50").
type TimeRef struct {
	Kind          RefKind
	At            timeutil.Clock
	Prayer        PrayerName
	OffsetMinutes int
}

// String renders the reference in template notation.
func (r TimeRef) String() string {
	switch r.Kind {
	case RefAbsolute:
		return r.At.String()
	case RefNamed:
		return string(r.Prayer)
	case RefOffset:
		if r.OffsetMinutes < 0 {
			return string(r.Prayer) + "-" + strconv.Itoa(-r.OffsetMinutes)
		}
		return string(r.Prayer) + "+" + strconv.Itoa(r.OffsetMinutes)
	}
	return ""
}

// Event is one entry of a day template. Kind selects the variant; the
// optional fields are only meaningful for the kinds noted below.
type Event struct {
	Kind     EventKind
	Name     string
	Duration time.Duration
	Flexible bool
	Tasks    []Task

	// Anchor: required for KindFixed, optional override for KindPrayer.
	Anchor *timeutil.Clock
	// Prayer: the canonical label, set for KindPrayer.
	Prayer PrayerName
	// StartRef/EndRef: set for KindPrayerBound. A nil StartRef means
	// "wherever the cursor currently is"; a nil EndRef means the
	// Duration field is authoritative.
	StartRef *TimeRef
	EndRef   *TimeRef
}

// Clone returns a deep copy. Scheduled items carry copies so duration
// truncation never mutates the template.
func (e Event) Clone() Event {
	out := e
	if e.Tasks != nil {
		out.Tasks = make([]Task, len(e.Tasks))
		copy(out.Tasks, e.Tasks)
	}
	if e.Anchor != nil {
		anchor := *e.Anchor
		out.Anchor = &anchor
	}
	if e.StartRef != nil {
		ref := *e.StartRef
		out.StartRef = &ref
	}
	if e.EndRef != nil {
		ref := *e.EndRef
		out.EndRef = &ref
	}
	return out
}

// DayTemplate is a parsed routine for one kind of day.
type DayTemplate struct {
	Name        string
	Description string
	StartTime   timeutil.Clock
	Events      []Event

	// Free-form header settings, consumed by the prayer collaborator:
	// per-prayer duration overrides and per-prayer time overrides.
	PrayerDurations map[string]string
	PrayerOverrides map[string]string
}

// PrayerSchedule holds the five computed prayer times for one day, plus
// the optional sunrise moment some providers report.
type PrayerSchedule struct {
	Fajr    timeutil.Clock
	Dhuhr   timeutil.Clock
	Asr     timeutil.Clock
	Maghrib timeutil.Clock
	Isha    timeutil.Clock
	Sunrise *timeutil.Clock
}

// TimeOf returns the clock time for a canonical prayer.
func (s PrayerSchedule) TimeOf(name PrayerName) (timeutil.Clock, bool) {
	switch name {
	case Fajr:
		return s.Fajr, true
	case Dhuhr:
		return s.Dhuhr, true
	case Asr:
		return s.Asr, true
	case Maghrib:
		return s.Maghrib, true
	case Isha:
		return s.Isha, true
	}
	return timeutil.Clock{}, false
}

// PrayerDurations configures how long each prayer slot blocks the plan.
type PrayerDurations struct {
	Fajr    time.Duration
	Dhuhr   time.Duration
	Asr     time.Duration
	Maghrib time.Duration
	Isha    time.Duration
}

// DefaultPrayerDurations mirrors the stock configuration: 20 minutes for
// Fajr/Maghrib/Isha, 15 for Dhuhr/Asr.
func DefaultPrayerDurations() PrayerDurations {
	return PrayerDurations{
		Fajr:    20 * time.Minute,
		Dhuhr:   15 * time.Minute,
		Asr:     15 * time.Minute,
		Maghrib: 20 * time.Minute,
		Isha:    20 * time.Minute,
	}
}

// Of returns the configured duration for a canonical prayer.
func (d PrayerDurations) Of(name PrayerName) time.Duration {
	switch name {
	case Fajr:
		return d.Fajr
	case Dhuhr:
		return d.Dhuhr
	case Asr:
		return d.Asr
	case Maghrib:
		return d.Maghrib
	case Isha:
		return d.Isha
	}
	return 0
}

// Merge applies template-declared duration overrides (raw header values)
// on top of the receiver, ignoring entries that fail to parse.
func (d PrayerDurations) Merge(overrides map[string]string) PrayerDurations {
	out := d
	for key, raw := range overrides {
		name, ok := NormalizePrayer(key)
		if !ok {
			continue
		}
		parsed, err := timeutil.ParseDuration(raw)
		if err != nil {
			continue
		}
		switch name {
		case Fajr:
			out.Fajr = parsed
		case Dhuhr:
			out.Dhuhr = parsed
		case Asr:
			out.Asr = parsed
		case Maghrib:
			out.Maghrib = parsed
		case Isha:
			out.Isha = parsed
		}
	}
	return out
}

// ScheduledEvent is an event pinned to a concrete interval of the plan
// day. Event is a copy; relative events may carry a truncated duration.
type ScheduledEvent struct {
	Event Event
	Start time.Time
	End   time.Time
}

// DisplayName is the presentation label, with a kind suffix for prayer
// and fixed entries.
func (s ScheduledEvent) DisplayName() string {
	switch s.Event.Kind {
	case KindPrayer:
		return s.Event.Name + " (Prayer)"
	case KindFixed:
		return s.Event.Name + " (Fixed)"
	}
	return s.Event.Name
}

// DayPlan is the ordered, non-overlapping timeline produced by the
// scheduler for one calendar day.
type DayPlan struct {
	TemplateName string
	Date         time.Time
	Items        []ScheduledEvent
}

// Add appends a scheduled item.
func (p *DayPlan) Add(item ScheduledEvent) {
	p.Items = append(p.Items, item)
}
