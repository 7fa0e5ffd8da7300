/*
Copyright (C) 2026 Munazzim Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List available templates",
	RunE:  runTemplates,
}

func init() {
	rootCmd.AddCommand(templatesCmd)
}

func runTemplates(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	repo, err := loadTemplates()
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("Templates in " + repo.Dir()))
	names := repo.Names()
	if len(names) == 0 {
		fmt.Println(dimStyle.Render("  (none)"))
	}
	for _, name := range names {
		record, err := repo.Record(name)
		if err != nil {
			continue
		}
		line := "  " + name
		if desc := record.Template.Description; desc != "" {
			line += dimStyle.Render("  " + desc)
		}
		fmt.Println(line)
	}
	for _, loadErr := range repo.Errors() {
		fmt.Println(warnStyle.Render(fmt.Sprintf("  ✗ %s: %s", loadErr.Path, loadErr.Message)))
	}
	return nil
}
