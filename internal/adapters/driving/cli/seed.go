package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/virtual-ta/internal/adapters/driven/scraper"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the sample corpus",
	Long: `Upserts the bundled sample documents, or the documents of a JSON seed
file, into the content store.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "JSON seed file (default: bundled sample corpus)")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	path := orDefault(seedFile, scraperCfg.SeedFile)

	var src driven.ContentSource = scraper.NewSeedSource()
	if path != "" {
		s, err := scraper.LoadSeedFile(path)
		if err != nil {
			return fmt.Errorf("load seed file: %w", err)
		}
		src = s
	}
	return runIngest(cmd, src)
}
