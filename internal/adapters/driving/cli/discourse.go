package cli

import (
	"net/url"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/virtual-ta/internal/adapters/driven/scraper"
)

var (
	categoryURL string
	startDate   string
	endDate     string
	maxPages    int
)

var discourseCmd = &cobra.Command{
	Use:   "discourse",
	Short: "Scrape forum topics within a date range",
	Long: `Scrapes every topic of a Discourse category created between the start
and end dates (YYYY-MM-DD, end date inclusive). Each topic is stored as one
document holding all of its posts.`,
	Args: cobra.NoArgs,
	RunE: runDiscourse,
}

func init() {
	discourseCmd.Flags().StringVar(&categoryURL, "category-url", "", "Discourse category URL to scrape")
	discourseCmd.Flags().StringVar(&startDate, "start-date", "", "Start date for scraping (YYYY-MM-DD)")
	discourseCmd.Flags().StringVar(&endDate, "end-date", "", "End date for scraping (YYYY-MM-DD)")
	discourseCmd.Flags().IntVar(&maxPages, "max-pages", 0, "Maximum category pages to walk")
	rootCmd.AddCommand(discourseCmd)
}

func runDiscourse(cmd *cobra.Command, _ []string) error {
	category := orDefault(categoryURL, scraperCfg.CategoryURL)
	start := orDefault(startDate, scraperCfg.StartDate)
	end := orDefault(endDate, scraperCfg.EndDate)

	since, until, err := scraper.ParseDateWindow(start, end)
	if err != nil {
		return err
	}
	pages := maxPages
	if pages <= 0 {
		pages = scraperCfg.MaxPages
	}

	cmd.Println("Starting TDS Discourse scraping:")
	cmd.Printf("  Category URL: %s\n", category)
	cmd.Printf("  Date range: %s to %s\n", start, end)

	src := scraper.NewDiscourseSource(scraper.DiscourseConfig{
		BaseURL:           forumBase(category, scraperCfg.DiscourseURL),
		CategoryID:        scraper.CategoryIDFromURL(category),
		Since:             since,
		Until:             until,
		MaxPages:          pages,
		RequestsPerSecond: scraperCfg.RequestsPerSecond,
		UserAgent:         scraperCfg.UserAgent,
		Logger:            logger,
	})
	return runIngest(cmd, src)
}

// forumBase returns the scheme and host of a category URL, or fallback when
// the category is given as a bare id.
func forumBase(category, fallback string) string {
	u, err := url.Parse(category)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fallback
	}
	return u.Scheme + "://" + u.Host
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
