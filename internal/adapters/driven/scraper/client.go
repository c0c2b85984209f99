package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
)

const (
	// DefaultUserAgent identifies the scraper to the sites it polls.
	DefaultUserAgent = "TDS-Virtual-TA-Bot/1.0 (Educational Purpose)"

	// DefaultRequestsPerSecond keeps the scraper polite to shared course infrastructure.
	DefaultRequestsPerSecond = 1.0

	defaultRequestTimeout = 10 * time.Second
	maxResponseBytes      = 10 << 20
)

// fetcher issues rate-limited GETs with the bot user agent.
type fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

func newFetcher(client *http.Client, rps float64, userAgent string) *fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &fetcher{
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		userAgent: userAgent,
	}
}

// get returns the body of a 200 response.
func (f *fetcher) get(ctx context.Context, url, accept string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, domain.NewBackendError("scraper", domain.ClassifyTransportError(err), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, domain.NewBackendError("scraper", domain.ClassifyTransportError(err), err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewBackendError("scraper", domain.ClassifyHTTPStatus(resp.StatusCode),
			fmt.Errorf("GET %s: status %d", url, resp.StatusCode))
	}
	return body, nil
}

func (f *fetcher) getJSON(ctx context.Context, url string, v any) error {
	body, err := f.get(ctx, url, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return domain.NewBackendError("scraper", domain.FailureMalformedResponse,
			fmt.Errorf("decode %s: %w", url, err))
	}
	return nil
}

// htmlText flattens an HTML fragment to its text nodes, one per line.
func htmlText(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style").Remove()

	var lines []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				if t := strings.TrimSpace(c.Text()); t != "" {
					lines = append(lines, t)
				}
				return
			}
			walk(c)
		})
	}
	walk(doc.Selection)
	return strings.Join(lines, "\n"), nil
}
