package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/m3rciful/budgetbot/core/bootstrap"
	corecmd "github.com/m3rciful/budgetbot/core/cmd"
	coreconfig "github.com/m3rciful/budgetbot/core/config"
	"github.com/m3rciful/budgetbot/internal/app"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot until interrupted",
		Long: `Run the Telegram bot in long polling or webhook mode, together with the
periodic document refresh and the session sweeper.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return corecmd.Run(cmd.Context(), corecmd.Options{
				ConfigPath:   cfgFile,
				ConfigEnvVar: configEnvVar,
				LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
					return coreconfig.Load(path)
				},
				Bootstrap: bootstrapApp,
			})
		},
	}
}

func bootstrapApp(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg := carrier.CoreConfig()
	infra, err := bootstrap.Run(ctx, bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg, app.Options{DB: infra.DB})
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	return a, nil
}
