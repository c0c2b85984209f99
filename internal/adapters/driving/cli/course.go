package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/virtual-ta/internal/adapters/driven/scraper"
)

var courseURLs []string

var courseCmd = &cobra.Command{
	Use:   "course",
	Short: "Scrape course content pages",
	Long: `Fetches course pages, converts their main content to text and stores
one document per page. Repeat --url for several pages; without it the
configured course URLs are used.`,
	Args: cobra.NoArgs,
	RunE: runCourse,
}

func init() {
	courseCmd.Flags().StringSliceVar(&courseURLs, "url", nil, "Course page URL to scrape (repeatable)")
	rootCmd.AddCommand(courseCmd)
}

func runCourse(cmd *cobra.Command, _ []string) error {
	urls := courseURLs
	if len(urls) == 0 {
		urls = scraperCfg.CourseURLs
	}
	if len(urls) == 0 {
		return errors.New("no course URLs given (use --url)")
	}

	cmd.Printf("Scraping %d course page(s)...\n", len(urls))
	src := scraper.NewCourseSource(scraper.CourseConfig{
		URLs:              urls,
		RequestsPerSecond: scraperCfg.RequestsPerSecond,
		UserAgent:         scraperCfg.UserAgent,
		Logger:            logger,
	})
	return runIngest(cmd, src)
}
