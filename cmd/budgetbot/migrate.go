package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m3rciful/budgetbot/core/bootstrap"
	coredatabase "github.com/m3rciful/budgetbot/core/database"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the postgres and sqlite stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			driver, ok := bootstrap.SQLDriver(cfg.Store.Backend)
			if !ok {
				return fmt.Errorf("store backend %q has no database to migrate", cfg.Store.Backend)
			}
			if err := coredatabase.RunMigrations(cmd.Context(), driver, cfg.Store.Database); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s migrations applied\n", driver)
			return err
		},
	}
}
