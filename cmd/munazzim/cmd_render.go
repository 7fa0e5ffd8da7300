/*
Copyright (C) 2026 Munazzim Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/munazzim/munazzim/internal/qalib"
)

var renderCmd = &cobra.Command{
	Use:   "render <template>",
	Short: "Print a template in canonical qalib form",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	repo, err := loadTemplates()
	if err != nil {
		return err
	}
	tpl, err := repo.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Print(qalib.Render(tpl))
	return nil
}
