/*
Copyright (C) 2026 Munazzim Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/munazzim/munazzim/internal/export"
	"github.com/munazzim/munazzim/internal/models"
	"github.com/munazzim/munazzim/internal/qalib"
	"github.com/munazzim/munazzim/internal/timeutil"
	"github.com/munazzim/munazzim/internal/validation"
)

type taskJSON struct {
	Label       string `json:"label"`
	Note        string `json:"note,omitempty"`
	Occurrences *int   `json:"occurrences,omitempty"`
}

type eventJSON struct {
	Name     string     `json:"name"`
	Kind     string     `json:"kind"`
	Duration string     `json:"duration,omitempty"`
	Anchor   string     `json:"anchor,omitempty"`
	Prayer   string     `json:"prayer,omitempty"`
	Start    string     `json:"start,omitempty"`
	End      string     `json:"end,omitempty"`
	Tasks    []taskJSON `json:"tasks,omitempty"`
}

type templateJSON struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	StartTime   string      `json:"start_time"`
	Source      string      `json:"source"`
	Events      []eventJSON `json:"events"`
	Rendered    string      `json:"rendered"`
}

type planItemJSON struct {
	Name  string     `json:"name"`
	Kind  string     `json:"kind"`
	Start time.Time  `json:"start"`
	End   time.Time  `json:"end"`
	Tasks []taskJSON `json:"tasks,omitempty"`
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	type loadErrJSON struct {
		Path    string `json:"path"`
		Message string `json:"message"`
	}
	loadErrs := make([]loadErrJSON, 0)
	for _, le := range s.templates.Errors() {
		loadErrs = append(loadErrs, loadErrJSON{Path: le.Path, Message: le.Message})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"directory": s.templates.Dir(),
		"templates": s.templates.Names(),
		"errors":    loadErrs,
	})
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	record, err := s.templates.Record(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	tpl := record.Template
	out := templateJSON{
		Name:        tpl.Name,
		Description: tpl.Description,
		StartTime:   tpl.StartTime.String(),
		Source:      record.Source,
		Events:      make([]eventJSON, 0, len(tpl.Events)),
		Rendered:    qalib.Render(tpl),
	}
	for _, event := range tpl.Events {
		out.Events = append(out.Events, eventToJSON(event))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePrayers(w http.ResponseWriter, r *http.Request) {
	day, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	schedule := s.prayers.GetSchedule(r.Context(), day)
	out := map[string]string{
		"date":    day.Format("2006-01-02"),
		"fajr":    schedule.Fajr.String(),
		"dhuhr":   schedule.Dhuhr.String(),
		"asr":     schedule.Asr.String(),
		"maghrib": schedule.Maghrib.String(),
		"isha":    schedule.Isha.String(),
	}
	if schedule.Sunrise != nil {
		out["sunrise"] = schedule.Sunrise.String()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	day, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := r.URL.Query().Get("template")
	if name == "" {
		name = s.cfg.TemplateForDay(strings.ToLower(day.Weekday().String()))
	}
	if name == "" {
		writeError(w, http.StatusBadRequest, "template required: pass ?template= or configure a default")
		return
	}

	tpl, err := s.templates.Get(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	schedule := s.prayers.GetSchedule(r.Context(), day)

	warnings, err := validation.Validate(tpl, schedule)
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  "template failed validation",
				"issues": verr.Issues,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	plan := s.scheduler.BuildPlan(tpl, day, schedule)

	if r.URL.Query().Get("format") == "ics" {
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(plan)+`"`)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(export.ToICal(plan)))
		return
	}

	items := make([]planItemJSON, 0, len(plan.Items))
	for _, item := range plan.Items {
		items = append(items, planItemJSON{
			Name:  item.DisplayName(),
			Kind:  item.Event.Kind.String(),
			Start: item.Start,
			End:   item.End,
			Tasks: tasksToJSON(item.Event.Tasks),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"template": plan.TemplateName,
		"date":     plan.Date.Format("2006-01-02"),
		"warnings": warnings,
		"items":    items,
	})
}

func eventToJSON(event models.Event) eventJSON {
	out := eventJSON{
		Name:  event.Name,
		Kind:  event.Kind.String(),
		Tasks: tasksToJSON(event.Tasks),
	}
	if event.Duration > 0 {
		out.Duration = timeutil.FormatDuration(event.Duration)
	}
	if event.Anchor != nil {
		out.Anchor = event.Anchor.String()
	}
	if event.Prayer != "" {
		out.Prayer = string(event.Prayer)
	}
	if event.StartRef != nil {
		out.Start = event.StartRef.String()
	}
	if event.EndRef != nil {
		out.End = event.EndRef.String()
	}
	return out
}

func tasksToJSON(tasks []models.Task) []taskJSON {
	if len(tasks) == 0 {
		return nil
	}
	out := make([]taskJSON, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, taskJSON{Label: task.Label, Note: task.Note, Occurrences: task.TotalOccurrences})
	}
	return out
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return timeutil.DayOf(time.Now()), nil
	}
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, errors.New("date must be YYYY-MM-DD")
	}
	return day, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
