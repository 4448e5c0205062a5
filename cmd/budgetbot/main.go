// Command budgetbot runs the envelope budgeting Telegram bot and its maintenance tools.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	corecmd "github.com/m3rciful/budgetbot/core/cmd"
	coreconfig "github.com/m3rciful/budgetbot/core/config"
)

const configEnvVar = "CONFIG_PATH"

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "budgetbot",
		Short:         "Envelope budgeting in a Telegram chat",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: $"+configEnvVar+", else environment only)")

	root.AddCommand(serveCmd())
	root.AddCommand(summaryCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(versionCmd())
	return root
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config selected by --config or CONFIG_PATH.
func loadConfig() (*coreconfig.Config, error) {
	return coreconfig.Load(corecmd.ResolveConfigPath(cfgFile, configEnvVar, ""))
}
