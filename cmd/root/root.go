// Package root contains the root command for the moneyflow CLI and the
// container shared by its subcommands.
package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moneyflow/ledger-engine/app"
	"github.com/moneyflow/ledger-engine/config"
	"github.com/moneyflow/ledger-engine/ledger"
	"github.com/moneyflow/ledger-engine/query"
)

var (
	// ConfigFile is the --config flag.
	ConfigFile string
	// LogLevel is the --log-level flag; empty keeps the configured level.
	LogLevel string

	// ContainerOptions are passed to every container the CLI builds.
	ContainerOptions []app.Option

	container *app.Container

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "moneyflow",
		Short: "A personal finance ledger for wallets, loans and savings goals.",
		Long: `moneyflow records deposits, expenses, transfers and personal loans
across your accounts, tracks a savings goal and answers questions about
your money. Run "moneyflow serve" to start the HTTP API.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if container != nil {
				_ = container.Close()
				container = nil
			}
		},
	}
)

func init() {
	Cmd.PersistentFlags().StringVarP(&ConfigFile, "config", "c", "", "Configuration file (default ./moneyflow.yaml)")
	Cmd.PersistentFlags().StringVar(&LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
}

func setup(cmd *cobra.Command, args []string) error {
	config.LoadEnv()
	cfg, err := config.InitializeConfig(ConfigFile)
	if err != nil {
		return err
	}
	if LogLevel != "" {
		cfg.Log.Level = LogLevel
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := app.NewContainer(ctx, cfg, ContainerOptions...)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	container = c
	return nil
}

// Container returns the container built for the running command.
func Container() *app.Container {
	return container
}

// Processor is shorthand for Container().Processor().
func Processor() *ledger.Processor {
	return container.Processor()
}

// Money is shorthand for Container().Money().
func Money() query.Money {
	return container.Money()
}
