package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/virtual-ta/internal/adapters/driving/cli"
	"github.com/custodia-labs/virtual-ta/internal/app"
	"github.com/custodia-labs/virtual-ta/internal/config"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driving"
	"github.com/custodia-labs/virtual-ta/internal/core/services"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, level := app.NewLogger(cfg.Logging, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backends, err := app.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}

	// Scraped documents land in the store; running API instances pick
	// them up on their next reindex.
	cli.Configure(cli.Options{
		Version: version,
		Scraper: cfg.Scraper,
		Ingest: func(sources ...driven.ContentSource) driving.IngestService {
			return services.NewIngestService(services.IngestConfig{
				Store:   backends.Store,
				Sources: sources,
				Logger:  logger,
			})
		},
		Logger:   logger,
		LogLevel: level,
	})

	err = cli.Execute(ctx)
	backends.Close()
	if err != nil {
		os.Exit(1)
	}
}
