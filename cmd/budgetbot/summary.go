package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/m3rciful/budgetbot/core/bootstrap"
	coreconfig "github.com/m3rciful/budgetbot/core/config"
	"github.com/m3rciful/budgetbot/internal/app"
	"github.com/m3rciful/budgetbot/internal/present"
)

func quietLogger(*coreconfig.Config) error { return nil }

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the budget totals from the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			infra, err := bootstrap.Run(ctx, bootstrap.Options{Config: cfg, LoggerInit: quietLogger})
			if err != nil {
				return err
			}
			defer func() { _ = infra.Close() }()

			store, err := app.NewStore(cfg, infra.DB)
			if err != nil {
				return err
			}
			snap, err := app.NewGateway(cfg, store).Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load budget: %w", err)
			}
			totals := snap.Doc.Totals(time.Now())

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(totals)
			}
			view := present.New(cfg.Budget.Currency, "")
			_, err = fmt.Fprintf(out, "%s\n\n%s\n", view.Unallocated(totals), view.Dashboard(totals, snap.Doc.Categories))
			return err
		},
	}
	cmd.Flags().Bool("json", false, "print the totals as JSON")
	return cmd
}
