/*
main.go - HTTP server entry point

PURPOSE:
  Starts the MoneyFlow ledger API. Loads configuration, builds the
  application container and serves the router until interrupted.

STARTUP SEQUENCE:
  1. Load .env and configuration (file, MONEYFLOW_* env)
  2. Build the container (logger, store, processor, assistant)
  3. Configure HTTP router
  4. Serve with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Configuration file (default: ./moneyflow.yaml if present)
  -port    HTTP server port, overrides server.port

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the store
  4. Exit

EXAMPLES:
  # Run with a file store
  MONEYFLOW_STORAGE_PATH=./data/moneyflow.json ./server

  # Run against SQLite
  MONEYFLOW_STORAGE_DRIVER=sqlite MONEYFLOW_STORAGE_PATH=moneyflow.db ./server

  # Run on different port
  ./server -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - app/container.go: Dependency wiring
  - config/config.go: Settings and defaults
*/
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/moneyflow/ledger-engine/api"
	"github.com/moneyflow/ledger-engine/app"
	"github.com/moneyflow/ledger-engine/config"
)

func main() {
	// Flags
	configFile := flag.String("config", "", "configuration file")
	port := flag.Int("port", 0, "HTTP server port")
	flag.Parse()

	config.LoadEnv()
	cfg, err := config.InitializeConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize ledger: %v", err)
	}
	defer container.Close()

	logger := container.Logger()
	handler := api.NewHandler(container.Processor(), container.Coach(), container.Money(), logger)
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins, logger)

	if err := api.Run(ctx, cfg.Server.Port, router, logger); err != nil {
		logger.Error(err.Error())
	}
}
