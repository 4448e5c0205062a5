package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m3rciful/budgetbot/core/buildinfo"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			date := buildinfo.Date
			if date == "" {
				date = "unknown"
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "budgetbot %s (commit %s, built %s)\n",
				buildinfo.Version, buildinfo.Commit, date)
			return err
		},
	}
}
