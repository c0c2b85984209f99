package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
)

var _ driven.ContentSource = (*CourseSource)(nil)

// maxTitleLength bounds a title guessed from the page text.
const maxTitleLength = 100

// CourseConfig lists the course pages to scrape.
type CourseConfig struct {
	URLs              []string
	RequestsPerSecond float64
	UserAgent         string
	HTTPClient        *http.Client
	Logger            *slog.Logger
	Now               func() time.Time
}

// CourseSource turns course pages into readable markdown documents.
type CourseSource struct {
	cfg    CourseConfig
	http   *fetcher
	logger *slog.Logger
}

// NewCourseSource creates a course page scraper.
func NewCourseSource(cfg CourseConfig) *CourseSource {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CourseSource{
		cfg:    cfg,
		http:   newFetcher(cfg.HTTPClient, cfg.RequestsPerSecond, cfg.UserAgent),
		logger: logger.With("source", "course"),
	}
}

// Name implements driven.ContentSource.
func (s *CourseSource) Name() string {
	return "course"
}

// Fetch implements driven.ContentSource. Pages that fail are skipped; the
// call fails only when every page failed.
func (s *CourseSource) Fetch(ctx context.Context) ([]*domain.Document, error) {
	docs := make([]*domain.Document, 0, len(s.cfg.URLs))
	var errs []error

	for _, pageURL := range s.cfg.URLs {
		doc, err := s.fetchPage(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return docs, ctx.Err()
			}
			s.logger.Warn("skipping course page", "url", pageURL, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", pageURL, err))
			continue
		}
		docs = append(docs, doc)
	}

	if len(docs) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return docs, nil
}

func (s *CourseSource) fetchPage(ctx context.Context, pageURL string) (*domain.Document, error) {
	body, err := s.http.get(ctx, pageURL, "text/html")
	if err != nil {
		return nil, err
	}

	title, text, err := PageToText(pageURL, body)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, fmt.Errorf("page has no readable content")
	}
	return domain.NewDocument(pageURL, title, text, domain.SourceKindCourseMaterial, s.cfg.Now()), nil
}

// PageToText extracts a title and markdown body from an HTML page.
// The title comes from <title>, then the first <h1>, then the first short
// line of the body.
func PageToText(pageURL string, page []byte) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", "", fmt.Errorf("parse html: %w", err)
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	doc.Find("script, style, noscript, nav, header, footer, aside").Remove()
	content := doc.Find("main, article, [role=main]").First()
	if content.Length() == 0 {
		content = doc.Find("body")
	}
	if content.Length() == 0 {
		content = doc.Selection
	}

	fragment, err := content.Html()
	if err != nil {
		return "", "", fmt.Errorf("extract content: %w", err)
	}

	domainName := ""
	if u, err := url.Parse(pageURL); err == nil {
		domainName = u.Host
	}
	text, err = md.NewConverter(domainName, true, nil).ConvertString(fragment)
	if err != nil {
		return "", "", fmt.Errorf("convert to markdown: %w", err)
	}
	text = strings.TrimSpace(text)

	if title == "" {
		title = TitleFromText(text)
	}
	return title, text, nil
}

// TitleFromText returns the first non-empty line shorter than
// maxTitleLength, stripped of markdown heading marks.
func TitleFromText(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "# "))
		if line != "" && len([]rune(line)) < maxTitleLength {
			return line
		}
	}
	return ""
}
