package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mozilla/mozilla-ignite/app"
	"github.com/mozilla/mozilla-ignite/config"
	"github.com/mozilla/mozilla-ignite/pkg/observability"
	"github.com/mozilla/mozilla-ignite/pkg/observability/attr"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	if err := run(*configFile); err != nil {
		log.Fatal(err)
	}
}

func run(configFile string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := observability.NewLogger(os.Stdout, cfg.Observability.LogLevel, cfg.Observability.LogFormat, cfg.Observability.Environment)
	obs := observability.NewObservability(logger, observability.NewMetrics("ignite"), nil)

	application, err := app.New(ctx, cfg, obs)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	logger.InfoContext(ctx, "Starting ignite server", attr.String("challenge", cfg.Challenge.Slug))
	return application.Run(ctx)
}
