// Package cli implements the vta-scrape command, which fills the content
// store from the course forum, course pages or the bundled sample corpus.
package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/virtual-ta/internal/config"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driving"
)

// IngestFactory builds an ingest service that stores what the given sources fetch.
type IngestFactory func(sources ...driven.ContentSource) driving.IngestService

// Options wires the CLI to its dependencies.
type Options struct {
	Version  string
	Scraper  config.ScraperConfig
	Ingest   IngestFactory
	Logger   *slog.Logger
	LogLevel *slog.LevelVar // raised to debug by --verbose
}

var (
	version    = "dev"
	scraperCfg = config.Default().Scraper
	newIngest  IngestFactory
	logger     = slog.Default()
	logLevel   *slog.LevelVar

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "vta-scrape",
	Short: "Scrape course content into the Virtual TA store",
	Long: `Fetches Discourse topics, course pages or the bundled sample corpus
and upserts them into the content store the Virtual TA answers from.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose && logLevel != nil {
			logLevel.Set(slog.LevelDebug)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// Configure sets the dependencies used by every command.
func Configure(opts Options) {
	if opts.Version != "" {
		version = opts.Version
	}
	scraperCfg = opts.Scraper
	newIngest = opts.Ingest
	if opts.Logger != nil {
		logger = opts.Logger
	}
	logLevel = opts.LogLevel
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// runIngest stores what src fetches and prints the outcome.
func runIngest(cmd *cobra.Command, src driven.ContentSource) error {
	if newIngest == nil {
		return errors.New("content store not configured")
	}

	reports, err := newIngest(src).Refresh(cmd.Context())
	for _, r := range reports {
		cmd.Printf("%s: fetched %d, saved %d, rejected %d\n", r.Source, r.Fetched, r.Saved, r.Rejected)
	}
	if err != nil {
		return err
	}

	saved := 0
	for _, r := range reports {
		saved += r.Saved
	}
	cmd.Printf("Scraping completed! %d documents saved.\n", saved)
	return nil
}
