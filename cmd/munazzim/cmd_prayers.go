/*
Copyright (C) 2026 Munazzim Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/munazzim/munazzim/internal/models"
)

var prayersDate string

var prayersCmd = &cobra.Command{
	Use:   "prayers",
	Short: "Show prayer times for a day",
	RunE:  runPrayers,
}

func init() {
	prayersCmd.Flags().StringVar(&prayersDate, "date", "", "date as YYYY-MM-DD (default today)")
	rootCmd.AddCommand(prayersCmd)
}

func runPrayers(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	day, err := resolveDate(prayersDate)
	if err != nil {
		return err
	}

	prayerSvc, cleanup, err := newPrayerService()
	if err != nil {
		return err
	}
	defer cleanup()
	schedule := prayerSvc.GetSchedule(cmd.Context(), day)

	fmt.Println(titleStyle.Render("Prayer times for " + day.Format("Monday, 2 January 2006")))
	if schedule.Sunrise != nil {
		fmt.Println(dimStyle.Render(fmt.Sprintf("  %-8s %s", "sunrise", schedule.Sunrise)))
	}
	for _, name := range models.CanonicalPrayers() {
		clock, _ := schedule.TimeOf(name)
		fmt.Println(prayerStyle.Render(fmt.Sprintf("  %-8s %s", name, clock)))
	}
	return nil
}
