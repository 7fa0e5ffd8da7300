/*
Copyright (C) 2026 Munazzim Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/munazzim/munazzim/internal/export"
	"github.com/munazzim/munazzim/internal/models"
	"github.com/munazzim/munazzim/internal/scheduler"
	"github.com/munazzim/munazzim/internal/timeutil"
	"github.com/munazzim/munazzim/internal/validation"
)

var (
	planDate string
	planICS  bool
	planOut  string
)

var planCmd = &cobra.Command{
	Use:   "plan [template]",
	Short: "Schedule a day from a template",
	Long:  "Build a concrete day plan: prayer times are fetched, the template is validated, and events are laid out around the prayers.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planDate, "date", "", "plan date as YYYY-MM-DD (default today)")
	planCmd.Flags().BoolVar(&planICS, "ics", false, "print the plan as an iCalendar document")
	planCmd.Flags().StringVar(&planOut, "out", "", "write an iCalendar file to this path")
	rootCmd.AddCommand(planCmd)
}

func resolveDate(raw string) (time.Time, error) {
	if raw == "" {
		return timeutil.DayOf(time.Now()), nil
	}
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return day, nil
}

// resolveTemplateName picks the template for a day: explicit argument
// first, then the configured weekday mapping, then the default.
func resolveTemplateName(args []string, day time.Time) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	name := cfg.TemplateForDay(strings.ToLower(day.Weekday().String()))
	if name == "" {
		return "", errors.New("no template given and no default configured")
	}
	return name, nil
}

func runPlan(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	day, err := resolveDate(planDate)
	if err != nil {
		return err
	}
	name, err := resolveTemplateName(args, day)
	if err != nil {
		return err
	}

	repo, err := loadTemplates()
	if err != nil {
		return err
	}
	tpl, err := repo.Get(name)
	if err != nil {
		return err
	}

	prayerSvc, cleanup, err := newPrayerService()
	if err != nil {
		return err
	}
	defer cleanup()
	schedule := prayerSvc.GetSchedule(cmd.Context(), day)

	warnings, err := validation.Validate(tpl, schedule)
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			for _, issue := range verr.Issues {
				fmt.Fprintln(os.Stderr, warnStyle.Render("✗ "+issue))
			}
			return fmt.Errorf("template '%s' failed validation", name)
		}
		return err
	}
	for _, warning := range warnings {
		fmt.Fprintln(os.Stderr, warnStyle.Render("! "+warning))
	}

	plan := scheduler.New(cfg.Durations(), logger).BuildPlan(tpl, day, schedule)

	if planOut != "" {
		if err := os.WriteFile(planOut, []byte(export.ToICal(plan)), 0o644); err != nil {
			return fmt.Errorf("write calendar: %w", err)
		}
		fmt.Println(dimStyle.Render("wrote " + planOut))
		return nil
	}
	if planICS {
		fmt.Print(export.ToICal(plan))
		return nil
	}

	printPlan(plan)
	return nil
}

func printPlan(plan models.DayPlan) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("%s — %s", plan.TemplateName, plan.Date.Format("Monday, 2 January 2006"))))
	for _, item := range plan.Items {
		line := fmt.Sprintf("%s - %s  %s",
			item.Start.Format("15:04"), item.End.Format("15:04"), item.Event.Name)
		switch item.Event.Kind {
		case models.KindPrayer:
			fmt.Println(prayerStyle.Render(line))
		case models.KindFixed:
			fmt.Println(fixedStyle.Render(line))
		default:
			fmt.Println(defaultStyle.Render(line))
		}
		for _, task := range item.Event.Tasks {
			taskLine := "        • " + task.Label
			if task.TotalOccurrences != nil && *task.TotalOccurrences > 1 {
				taskLine = fmt.Sprintf("        • %s ×%d", task.Label, *task.TotalOccurrences)
			}
			if task.Note != "" {
				taskLine += " :: " + task.Note
			}
			fmt.Println(dimStyle.Render(taskLine))
		}
	}
}
