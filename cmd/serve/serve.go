// Package serve handles the HTTP API command
package serve

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/moneyflow/ledger-engine/api"
	"github.com/moneyflow/ledger-engine/cmd/root"
)

var port int

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Start the HTTP API and serve it until interrupted.`,
	Args:  cobra.NoArgs,
	RunE:  serveFunc,
}

func init() {
	Cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP server port (default server.port)")
}

func serveFunc(cmd *cobra.Command, args []string) error {
	c := root.Container()
	cfg := c.Config()
	if port != 0 {
		cfg.Server.Port = port
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := api.NewHandler(c.Processor(), c.Coach(), c.Money(), c.Logger())
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins, c.Logger())
	return api.Run(ctx, cfg.Server.Port, router, c.Logger())
}
