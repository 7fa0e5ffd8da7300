/*
Copyright (C) 2026 Munazzim Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package scheduler turns a day template plus a prayer schedule into a
// concrete timeline. The planner walks the template top to bottom with
// a time cursor, weaving the five prayer slots into the plan as the
// cursor passes them. Building a plan never fails; nonsensical
// templates are the validator's concern.
package scheduler

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/munazzim/munazzim/internal/models"
	"github.com/munazzim/munazzim/internal/timeutil"
)

// PrayerSlot is a pending prayer occurrence: where it wants to start
// and how long it blocks the timeline. Slots are consumed in day order
// and their starts may be pushed later by fixed events.
type PrayerSlot struct {
	Label    models.PrayerName
	Start    time.Time
	Duration time.Duration
}

// Scheduler builds day plans.
type Scheduler struct {
	durations models.PrayerDurations
	log       zerolog.Logger
}

// New returns a Scheduler using the given base prayer durations.
// Templates may still override individual durations via their headers.
func New(durations models.PrayerDurations, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		durations: durations,
		log:       log.With().Str("component", "scheduler").Logger(),
	}
}

// BuildPlan schedules the template onto the given calendar day using
// the provided prayer schedule. All five prayers always end up in the
// plan: slots the template never reaches are appended at the end.
func (s *Scheduler) BuildPlan(template models.DayTemplate, planDate time.Time, schedule models.PrayerSchedule) models.DayPlan {
	day := timeutil.DayOf(planDate)
	cursor := timeutil.NewCursor(template.StartTime, day)
	plan := models.DayPlan{TemplateName: template.Name, Date: day}
	durations := s.durations.Merge(template.PrayerDurations)

	run := &planRun{
		cursor:   cursor,
		plan:     &plan,
		schedule: schedule,
		slots:    prayerSlots(day, schedule, durations),
	}

	for _, event := range template.Events {
		run.flushPrayers(cursor.Position)
		run.scheduleEvent(event)
	}
	for {
		slot := run.popPrayer()
		if slot == nil {
			break
		}
		run.schedulePrayer(slot)
	}

	s.log.Debug().
		Str("template", template.Name).
		Time("date", day).
		Int("items", len(plan.Items)).
		Msg("built day plan")
	return plan
}

func prayerSlots(day time.Time, schedule models.PrayerSchedule, durations models.PrayerDurations) []*PrayerSlot {
	slots := make([]*PrayerSlot, 0, 5)
	for _, name := range models.CanonicalPrayers() {
		moment, _ := schedule.TimeOf(name)
		slots = append(slots, &PrayerSlot{
			Label:    name,
			Start:    moment.At(day),
			Duration: durations.Of(name),
		})
	}
	return slots
}

// planRun holds the mutable state of one BuildPlan pass.
type planRun struct {
	cursor   *timeutil.Cursor
	plan     *models.DayPlan
	schedule models.PrayerSchedule
	slots    []*PrayerSlot
	index    int
}

func (r *planRun) peekPrayer() *PrayerSlot {
	if r.index < len(r.slots) {
		return r.slots[r.index]
	}
	return nil
}

func (r *planRun) popPrayer() *PrayerSlot {
	slot := r.peekPrayer()
	if slot != nil {
		r.index++
	}
	return slot
}

// schedulePrayer moves the cursor to the slot and places its prayer
// event on the plan.
func (r *planRun) schedulePrayer(slot *PrayerSlot) {
	event := models.Event{
		Kind:     models.KindPrayer,
		Name:     fmt.Sprintf("%s Prayer", slot.Label),
		Prayer:   slot.Label,
		Duration: slot.Duration,
	}
	r.cursor.Position = slot.Start
	start, end := r.cursor.Advance(event.Duration)
	r.plan.Add(models.ScheduledEvent{Event: event, Start: start, End: end})
}

// flushPrayers schedules every pending slot the cursor has already
// reached or passed.
func (r *planRun) flushPrayers(before time.Time) {
	for {
		slot := r.peekPrayer()
		if slot == nil || slot.Start.After(before) {
			return
		}
		r.schedulePrayer(r.popPrayer())
	}
}

// pushPrayersAfter delays pending slots that would start inside an
// interval that just got claimed. The scan stops at the first slot
// already past the boundary.
func (r *planRun) pushPrayersAfter(boundary time.Time) {
	for idx := r.index; idx < len(r.slots); idx++ {
		if r.slots[idx].Start.Before(boundary) {
			r.slots[idx].Start = boundary
		} else {
			return
		}
	}
}

// resolveRef turns a prayer-bound edge into a moment on the plan day.
func (r *planRun) resolveRef(ref *models.TimeRef) *time.Time {
	if ref == nil {
		return nil
	}
	if ref.Kind == models.RefAbsolute {
		moment := ref.At.At(r.cursor.Day)
		return &moment
	}
	clock, ok := r.schedule.TimeOf(ref.Prayer)
	if !ok {
		return nil
	}
	moment := clock.At(r.cursor.Day)
	if ref.Kind == models.RefOffset {
		moment = moment.Add(time.Duration(ref.OffsetMinutes) * time.Minute)
	}
	return &moment
}

func (r *planRun) scheduleEvent(event models.Event) {
	switch event.Kind {
	case models.KindPrayerBound:
		r.schedulePrayerBound(event)
	case models.KindPrayer:
		r.schedulePlaceholder(event)
	case models.KindFixed:
		r.scheduleFixed(event)
	default:
		r.scheduleRelative(event)
	}
}

func (r *planRun) schedulePrayerBound(event models.Event) {
	var startAt time.Time
	if event.StartRef != nil {
		resolved := r.resolveRef(event.StartRef)
		if resolved == nil {
			return
		}
		startAt = *resolved
	} else {
		startAt = r.cursor.Position
	}

	var endAt time.Time
	if resolved := r.resolveRef(event.EndRef); resolved != nil {
		endAt = *resolved
	} else {
		if event.Duration <= 0 {
			return
		}
		endAt = startAt.Add(event.Duration)
	}
	// An end bound at or before the start wraps to the next day.
	if !endAt.After(startAt) {
		endAt = endAt.Add(24 * time.Hour)
	}
	if event.StartRef != nil {
		r.cursor.Position = startAt
	}
	start, end := r.cursor.Advance(endAt.Sub(startAt))
	scheduled := event.Clone()
	scheduled.Duration = end.Sub(start)
	r.plan.Add(models.ScheduledEvent{Event: scheduled, Start: start, End: end})
	r.pushPrayersAfter(end)
}

// schedulePlaceholder handles an explicit prayer line from the
// template. If the matching slot was already flushed onto the plan the
// placeholder corrects it in place; otherwise slots are consumed up to
// and including the matching one, with the placeholder's anchor and
// duration overriding the slot's.
func (r *planRun) schedulePlaceholder(event models.Event) {
	for idx := len(r.plan.Items) - 1; idx >= 0; idx-- {
		item := &r.plan.Items[idx]
		if item.Event.Kind != models.KindPrayer || item.Event.Prayer != event.Prayer {
			continue
		}
		if event.Anchor != nil {
			item.Start = event.Anchor.At(r.cursor.Day)
		}
		if event.Duration > 0 {
			item.Event.Duration = event.Duration
			item.End = item.Start.Add(event.Duration)
		}
		return
	}

	for {
		next := r.peekPrayer()
		if next == nil {
			return
		}
		if next.Label != event.Prayer {
			r.schedulePrayer(r.popPrayer())
			continue
		}
		slot := r.popPrayer()
		if event.Anchor != nil {
			slot.Start = event.Anchor.At(r.cursor.Day)
		}
		if event.Duration > 0 {
			slot.Duration = event.Duration
		}
		r.schedulePrayer(slot)
		return
	}
}

func (r *planRun) scheduleFixed(event models.Event) {
	r.cursor.JumpTo(*event.Anchor)
	start, end := r.cursor.Advance(event.Duration)
	scheduled := event.Clone()
	scheduled.Duration = end.Sub(start)
	r.plan.Add(models.ScheduledEvent{Event: scheduled, Start: start, End: end})
	r.pushPrayersAfter(end)
}

// scheduleRelative places a flexible block, splitting it into chunks
// around any prayer slot it would otherwise run through.
func (r *planRun) scheduleRelative(event models.Event) {
	remaining := event.Duration
	for remaining > 0 {
		next := r.peekPrayer()
		if next != nil && next.Start.Before(r.cursor.Position) {
			r.schedulePrayer(r.popPrayer())
			continue
		}

		var untilPrayer time.Duration
		chunk := remaining
		if next != nil {
			untilPrayer = next.Start.Sub(r.cursor.Position)
			if untilPrayer <= 0 {
				r.schedulePrayer(r.popPrayer())
				continue
			}
			if untilPrayer < chunk {
				chunk = untilPrayer
			}
		}

		start, end := r.cursor.Advance(chunk)
		scheduled := event.Clone()
		scheduled.Duration = chunk
		r.plan.Add(models.ScheduledEvent{Event: scheduled, Start: start, End: end})
		remaining -= chunk

		if next != nil && chunk == untilPrayer {
			r.schedulePrayer(r.popPrayer())
		}
	}
}
