/*
Copyright (C) 2026 Munazzim Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package qalib parses and renders the plaintext qalib day-template
// notation. A template is a wake-up time followed by event lines; each
// line is classified by shape (fixed range, anchored duration,
// prayer-bound range, relative block, or sub-task).
package qalib

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/munazzim/munazzim/internal/models"
	"github.com/munazzim/munazzim/internal/timeutil"
)

// ParseError reports why a template line could not be understood. Line
// is zero for template-level problems.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return e.Reason
}

func errorAt(line int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Reason: fmt.Sprintf(format, args...)}
}

var (
	// durationToken: "2", "1:30", "1.30", ".45"
	durationToken = regexp.MustCompile(`^(?:\d+(?::\d{2})?|\d+\.\d{1,2}|\.\d{1,2})$`)
	// timeToken: "7:30", "07.30"
	timeToken = regexp.MustCompile(`^\d{1,2}[:.]\d{2}$`)
	// prayerOffsetToken: "Maghrib-50", "fajr+15"
	prayerOffsetToken = regexp.MustCompile(`^([A-Za-z]+)([+-])(\d{1,3})$`)
)

func isTimeToken(token string) bool {
	return timeToken.MatchString(strings.TrimSpace(token))
}

func isPrayerToken(token string) bool {
	_, ok := models.NormalizePrayer(token)
	return ok
}

// parseDurationToken interprets the qalib duration notation: a bare
// integer is hours, ".MM" is minutes, "H:MM" and "H.MM" are both
// hours-and-minutes.
func parseDurationToken(token string) (time.Duration, error) {
	cleaned := strings.TrimSpace(token)
	if cleaned == "" {
		return 0, &ParseError{Reason: "empty duration token"}
	}
	if strings.HasPrefix(cleaned, ".") {
		minutes, err := strconv.Atoi(cleaned[1:])
		if err != nil {
			return 0, &ParseError{Reason: fmt.Sprintf("unsupported duration token '%s'", token)}
		}
		return time.Duration(minutes) * time.Minute, nil
	}
	sep := ""
	switch {
	case strings.Contains(cleaned, ":"):
		sep = ":"
	case strings.Contains(cleaned, "."):
		sep = "."
	}
	if sep != "" {
		parts := strings.SplitN(cleaned, sep, 2)
		hours, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, &ParseError{Reason: fmt.Sprintf("unsupported duration token '%s'", token)}
		}
		minutes, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, &ParseError{Reason: fmt.Sprintf("unsupported duration token '%s'", token)}
		}
		return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
	}
	hours, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, &ParseError{Reason: fmt.Sprintf("unsupported duration token '%s'", token)}
	}
	return time.Duration(hours) * time.Hour, nil
}

// parseTimeOrPrayer resolves one edge of a prayer-bound range. Empty
// tokens return nil (open edge).
func parseTimeOrPrayer(token string) (*models.TimeRef, error) {
	cleaned := strings.TrimSpace(token)
	if cleaned == "" {
		return nil, nil
	}
	if isTimeToken(cleaned) {
		at, err := timeutil.ParseClock(cleaned)
		if err != nil {
			return nil, err
		}
		return &models.TimeRef{Kind: models.RefAbsolute, At: at}, nil
	}
	if match := prayerOffsetToken.FindStringSubmatch(cleaned); match != nil {
		prayer, ok := models.NormalizePrayer(match[1])
		if !ok {
			return nil, &ParseError{Reason: fmt.Sprintf("Unsupported time/prayer token '%s'", token)}
		}
		minutes, _ := strconv.Atoi(match[3])
		if match[2] == "-" {
			minutes = -minutes
		}
		return &models.TimeRef{Kind: models.RefOffset, Prayer: prayer, OffsetMinutes: minutes}, nil
	}
	if prayer, ok := models.NormalizePrayer(cleaned); ok {
		return &models.TimeRef{Kind: models.RefNamed, Prayer: prayer}, nil
	}
	return nil, &ParseError{Reason: fmt.Sprintf("Unsupported time/prayer token '%s'", token)}
}

func stripInlineComment(value string) string {
	idx := strings.Index(value, "#")
	if idx == -1 {
		return value
	}
	return strings.TrimRight(value[:idx], " \t")
}

// durationBetween measures start→end within one day, wrapping past
// midnight when the end is not after the start.
func durationBetween(start, end timeutil.Clock) time.Duration {
	startMin := start.Hour*60 + start.Minute
	endMin := end.Hour*60 + end.Minute
	if endMin <= startMin {
		endMin += 24 * 60
	}
	return time.Duration(endMin-startMin) * time.Minute
}

type builder struct {
	name            string
	description     string
	startTime       *timeutil.Clock
	events          []models.Event
	prayerDurations map[string]string
	prayerOverrides map[string]string
	blockCounter    int
}

func newBuilder(defaultName string) *builder {
	return &builder{
		name:            defaultName,
		prayerDurations: map[string]string{},
		prayerOverrides: map[string]string{},
		blockCounter:    1,
	}
}

func (b *builder) consume(line string, lineno int) error {
	stripped := strings.TrimSpace(line)
	if stripped == "" {
		return nil
	}
	header := stripped
	if strings.HasPrefix(header, "#") {
		header = strings.TrimSpace(header[1:])
	}
	lower := strings.ToLower(header)
	switch {
	case strings.HasPrefix(lower, "name:"):
		b.name = strings.TrimSpace(header[len("name:"):])
		return nil
	case strings.HasPrefix(lower, "description:"):
		detail := strings.TrimSpace(header[len("description:"):])
		if b.description != "" {
			b.description += " "
		}
		b.description += detail
		return nil
	case strings.HasPrefix(lower, "prayer_durations."):
		return b.consumePrayerSetting(header, lineno, b.prayerDurations)
	case strings.HasPrefix(lower, "prayer_overrides."):
		return b.consumePrayerSetting(header, lineno, b.prayerOverrides)
	}
	if strings.HasPrefix(stripped, "#") {
		return nil
	}

	content := strings.TrimSpace(stripInlineComment(stripped))
	if content == "" {
		return nil
	}
	if strings.HasPrefix(content, "-") {
		return b.addTask(content, lineno)
	}

	tokens := strings.Fields(content)
	switch {
	case len(tokens) >= 2 && isTimeToken(tokens[0]) && isTimeToken(tokens[1]):
		return b.addFixedEvent(tokens)
	case len(tokens) >= 2 && isTimeToken(tokens[0]) && strings.HasPrefix(tokens[1], "+"):
		return b.addFixedDurationEvent(tokens, lineno)
	case len(tokens) >= 2 && isPrayerToken(tokens[0]) && strings.HasPrefix(tokens[1], "+"):
		return b.addPrayerDurationEvent(tokens, lineno)
	case strings.Contains(tokens[0], ".."):
		return b.addPrayerRangeEvent(tokens, lineno)
	case b.startTime == nil && len(tokens) == 1 && isTimeToken(tokens[0]):
		start, err := timeutil.ParseClock(tokens[0])
		if err != nil {
			return errorAt(lineno, "%v", err)
		}
		b.startTime = &start
		return nil
	}
	return b.addRelativeEvent(tokens, content, lineno)
}

func (b *builder) build() (models.DayTemplate, error) {
	if b.startTime == nil {
		return models.DayTemplate{}, &ParseError{Reason: "Template missing wake-up start time"}
	}
	name := b.name
	if name == "" {
		name = "Unnamed Template"
	}
	return models.DayTemplate{
		Name:            name,
		Description:     strings.TrimSpace(b.description),
		StartTime:       *b.startTime,
		Events:          b.events,
		PrayerDurations: b.prayerDurations,
		PrayerOverrides: b.prayerOverrides,
	}, nil
}

func (b *builder) consumePrayerSetting(header string, lineno int, target map[string]string) error {
	colon := strings.Index(header, ":")
	if colon == -1 {
		return errorAt(lineno, "missing ':' in '%s'", header)
	}
	keyPart := header[:colon]
	value := strings.TrimSpace(header[colon+1:])
	dot := strings.Index(keyPart, ".")
	prayerKey := strings.ToLower(strings.TrimSpace(keyPart[dot+1:]))
	prayer, ok := models.NormalizePrayer(prayerKey)
	if !ok {
		return errorAt(lineno, "unsupported prayer '%s'", prayerKey)
	}
	if value == "" {
		return nil
	}
	target[strings.ToLower(string(prayer))] = value
	return nil
}

// appendEvent records the event as the task-attachment target.
func (b *builder) appendEvent(event models.Event) {
	b.events = append(b.events, event)
}

// promoteToPrayer turns an event whose name starts with a prayer name
// into a prayer placeholder carrying the same duration and anchor.
func promoteToPrayer(name string) (models.PrayerName, bool) {
	fields := strings.Fields(strings.ToLower(name))
	if len(fields) == 0 {
		return "", false
	}
	return models.NormalizePrayer(fields[0])
}

func (b *builder) addRelativeEvent(tokens []string, content string, lineno int) error {
	if len(tokens) == 0 {
		return errorAt(lineno, "missing duration token")
	}
	durToken := tokens[0]
	if !durationToken.MatchString(durToken) {
		return errorAt(lineno, "'%s' is not a duration", durToken)
	}
	duration, err := parseDurationToken(durToken)
	if err != nil {
		return errorAt(lineno, "%v", err)
	}
	name := strings.TrimSpace(content[len(durToken):])
	if name == "" {
		name = fmt.Sprintf("Block %d", b.blockCounter)
	}
	b.blockCounter++
	if prayer, ok := promoteToPrayer(name); ok {
		b.appendEvent(models.Event{Kind: models.KindPrayer, Name: name, Prayer: prayer, Duration: duration})
		return nil
	}
	b.appendEvent(models.Event{Kind: models.KindRelative, Name: name, Duration: duration, Flexible: true})
	return nil
}

func (b *builder) addFixedEvent(tokens []string) error {
	start, err := timeutil.ParseClock(tokens[0])
	if err != nil {
		return err
	}
	end, err := timeutil.ParseClock(tokens[1])
	if err != nil {
		return err
	}
	name := strings.TrimSpace(strings.Join(tokens[2:], " "))
	if name == "" {
		name = fmt.Sprintf("Thabbat %d", b.blockCounter)
	}
	duration := durationBetween(start, end)
	anchor := start
	if prayer, ok := promoteToPrayer(name); ok {
		b.appendEvent(models.Event{Kind: models.KindPrayer, Name: name, Prayer: prayer, Duration: duration, Anchor: &anchor})
	} else {
		b.appendEvent(models.Event{Kind: models.KindFixed, Name: name, Duration: duration, Anchor: &anchor})
	}
	b.blockCounter++
	return nil
}

func (b *builder) addFixedDurationEvent(tokens []string, lineno int) error {
	start, err := timeutil.ParseClock(tokens[0])
	if err != nil {
		return errorAt(lineno, "%v", err)
	}
	durToken := strings.TrimSpace(tokens[1][1:])
	if durToken == "" || !durationToken.MatchString(durToken) {
		return errorAt(lineno, "'%s' is not a duration", tokens[1])
	}
	duration, err := parseDurationToken(durToken)
	if err != nil {
		return errorAt(lineno, "%v", err)
	}
	name := strings.TrimSpace(strings.Join(tokens[2:], " "))
	if name == "" {
		name = fmt.Sprintf("Thabbat %d", b.blockCounter)
	}
	anchor := start
	if prayer, ok := promoteToPrayer(name); ok {
		b.appendEvent(models.Event{Kind: models.KindPrayer, Name: name, Prayer: prayer, Duration: duration, Anchor: &anchor})
	} else {
		b.appendEvent(models.Event{Kind: models.KindFixed, Name: name, Duration: duration, Anchor: &anchor})
	}
	b.blockCounter++
	return nil
}

func (b *builder) addPrayerDurationEvent(tokens []string, lineno int) error {
	prayer, _ := models.NormalizePrayer(tokens[0])
	durToken := strings.TrimSpace(tokens[1][1:])
	if durToken == "" || !durationToken.MatchString(durToken) {
		return errorAt(lineno, "'%s' is not a duration", tokens[1])
	}
	duration, err := parseDurationToken(durToken)
	if err != nil {
		return errorAt(lineno, "%v", err)
	}
	name := strings.TrimSpace(strings.Join(tokens[2:], " "))
	if name == "" {
		name = fmt.Sprintf("Thabbat %d", b.blockCounter)
	}
	b.appendEvent(models.Event{
		Kind:     models.KindPrayerBound,
		Name:     name,
		Duration: duration,
		StartRef: &models.TimeRef{Kind: models.RefNamed, Prayer: prayer},
	})
	b.blockCounter++
	return nil
}

func (b *builder) addPrayerRangeEvent(tokens []string, lineno int) error {
	rangeToken := tokens[0]
	split := strings.SplitN(rangeToken, "..", 2)
	startRef, err := parseTimeOrPrayer(split[0])
	if err != nil {
		return errorAt(lineno, "%v", err)
	}
	endRef, err := parseTimeOrPrayer(split[1])
	if err != nil {
		return errorAt(lineno, "%v", err)
	}
	if endRef == nil {
		return errorAt(lineno, "missing end bound in '%s'", rangeToken)
	}
	name := strings.TrimSpace(strings.Join(tokens[1:], " "))
	if name == "" {
		name = fmt.Sprintf("Thabbat %d", b.blockCounter)
	}
	b.appendEvent(models.Event{
		Kind:     models.KindPrayerBound,
		Name:     name,
		StartRef: startRef,
		EndRef:   endRef,
	})
	b.blockCounter++
	return nil
}

func (b *builder) addTask(content string, lineno int) error {
	if len(b.events) == 0 {
		return errorAt(lineno, "task specified before any event")
	}
	body := strings.TrimSpace(content[1:])
	var occurrences *int
	if strings.HasPrefix(body, "[") {
		closing := strings.Index(body, "]")
		if closing == -1 {
			return errorAt(lineno, "malformed occurrences block")
		}
		expr := strings.TrimSpace(body[1:closing])
		if expr != "" {
			value, err := evalOccurrences(expr)
			if err != nil {
				if pe, ok := err.(*ParseError); ok {
					pe.Line = lineno
					return pe
				}
				return errorAt(lineno, "%v", err)
			}
			occurrences = &value
		}
		body = strings.TrimSpace(body[closing+1:])
	}
	label, note := splitTaskLabelAndNote(body)
	if label == "" {
		label = "Task"
	}
	var remaining *int
	if occurrences != nil {
		r := *occurrences
		remaining = &r
	}
	current := &b.events[len(b.events)-1]
	current.Tasks = append(current.Tasks, models.Task{
		Label:                label,
		Note:                 note,
		TotalOccurrences:     occurrences,
		RemainingOccurrences: remaining,
	})
	return nil
}

func splitTaskLabelAndNote(text string) (label, note string) {
	if !strings.Contains(text, "::") {
		return strings.TrimSpace(text), ""
	}
	parts := strings.SplitN(text, "::", 2)
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}

// Parse reads a qalib document into a DayTemplate. defaultName is used
// when the template has no name header (typically the file stem).
func Parse(raw, defaultName string) (models.DayTemplate, error) {
	b := newBuilder(defaultName)
	for idx, line := range strings.Split(raw, "\n") {
		if err := b.consume(line, idx+1); err != nil {
			return models.DayTemplate{}, err
		}
	}
	return b.build()
}
