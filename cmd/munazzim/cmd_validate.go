/*
Copyright (C) 2026 Munazzim Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/munazzim/munazzim/internal/validation"
)

var validateDate string

var validateCmd = &cobra.Command{
	Use:   "validate [template]",
	Short: "Check a template against prayer times",
	Long:  "Validate a template without scheduling it: wake time, fixed-event overlaps, anchored prayers, and the 24-hour budget.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateDate, "date", "", "date to validate against as YYYY-MM-DD (default today)")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	day, err := resolveDate(validateDate)
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
				fmt.Println(warnStyle.Render("✗ " + issue))
			}
			return fmt.Errorf("template '%s' failed validation", name)
		}
		return err
	}
	for _, warning := range warnings {
		fmt.Println(warnStyle.Render("! " + warning))
	}
	fmt.Println(prayerStyle.Render(fmt.Sprintf("✓ template '%s' is valid", name)))
	return nil
}
