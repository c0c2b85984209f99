package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
)

var _ driven.ContentSource = (*DiscourseSource)(nil)

const (
	// DefaultDiscourseURL is the IITM online degree forum.
	DefaultDiscourseURL = "https://discourse.onlinedegree.iitm.ac.in"
	// DefaultCategoryURL is the TDS knowledge base category.
	DefaultCategoryURL = DefaultDiscourseURL + "/c/courses/tds-kb/34"
	// DefaultStartDate and DefaultEndDate bound the Jan 2025 term.
	DefaultStartDate = "2025-01-01"
	DefaultEndDate   = "2025-04-14"

	dateLayout = "2006-01-02"

	defaultMaxPages = 100
	postSeparator   = "\n\n---\n\n"
)

// DiscourseConfig configures a category scrape.
// A zero Since or Until leaves that side of the window open.
type DiscourseConfig struct {
	BaseURL           string
	CategoryID        string
	Since             time.Time
	Until             time.Time
	MaxPages          int
	RequestsPerSecond float64
	UserAgent         string
	HTTPClient        *http.Client
	Logger            *slog.Logger
	Now               func() time.Time
}

// DiscourseSource scrapes every topic of one Discourse category whose
// creation time falls in the configured window. Each topic becomes one
// document holding all of its posts.
type DiscourseSource struct {
	cfg    DiscourseConfig
	http   *fetcher
	logger *slog.Logger
}

// NewDiscourseSource creates a category scraper.
func NewDiscourseSource(cfg DiscourseConfig) *DiscourseSource {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultDiscourseURL
	}
	if cfg.CategoryID == "" {
		cfg.CategoryID = CategoryIDFromURL(DefaultCategoryURL)
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DiscourseSource{
		cfg:    cfg,
		http:   newFetcher(cfg.HTTPClient, cfg.RequestsPerSecond, cfg.UserAgent),
		logger: logger.With("source", "discourse", "category", cfg.CategoryID),
	}
}

// CategoryIDFromURL returns the trailing numeric segment of a category URL
// such as https://host/c/courses/tds-kb/34. A bare id is returned as is.
func CategoryIDFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		raw = u.Path
	}
	raw = strings.Trim(raw, "/")
	if i := strings.LastIndex(raw, "/"); i >= 0 {
		raw = raw[i+1:]
	}
	return raw
}

// Name implements driven.ContentSource.
func (s *DiscourseSource) Name() string {
	return "discourse:" + s.cfg.CategoryID
}

type discourseTopic struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

type categoryPage struct {
	TopicList struct {
		Topics []discourseTopic `json:"topics"`
	} `json:"topic_list"`
}

type topicPage struct {
	Title      string `json:"title"`
	PostStream struct {
		Posts []struct {
			Cooked string `json:"cooked"`
		} `json:"posts"`
	} `json:"post_stream"`
}

// Fetch implements driven.ContentSource. A topic that cannot be fetched is
// logged and skipped; failing to list the category at all is an error.
func (s *DiscourseSource) Fetch(ctx context.Context) ([]*domain.Document, error) {
	topics, err := s.listTopics(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("found topics in window", "count", len(topics))

	docs := make([]*domain.Document, 0, len(topics))
	for _, topic := range topics {
		doc, err := s.fetchTopic(ctx, topic)
		if err != nil {
			if ctx.Err() != nil {
				return docs, ctx.Err()
			}
			s.logger.Warn("skipping topic", "topic_id", topic.ID, "error", err)
			continue
		}
		if doc == nil {
			continue
		}
		docs = append(docs, doc)
		s.logger.Debug("scraped topic", "topic_id", topic.ID, "title", doc.Title)
	}
	return docs, nil
}

func (s *DiscourseSource) inWindow(t time.Time) bool {
	if !s.cfg.Since.IsZero() && t.Before(s.cfg.Since) {
		return false
	}
	if !s.cfg.Until.IsZero() && t.After(s.cfg.Until) {
		return false
	}
	return true
}

// listTopics walks category pages until an empty page, the page limit, or a
// page whose last topic predates the window.
func (s *DiscourseSource) listTopics(ctx context.Context) ([]discourseTopic, error) {
	var topics []discourseTopic
	seen := make(map[int64]bool)

	for page := 0; page < s.cfg.MaxPages; page++ {
		endpoint := fmt.Sprintf("%s/c/%s.json?page=%d", s.cfg.BaseURL, url.PathEscape(s.cfg.CategoryID), page)

		var data categoryPage
		if err := s.http.getJSON(ctx, endpoint, &data); err != nil {
			if page == 0 {
				return nil, fmt.Errorf("list category %s: %w", s.cfg.CategoryID, err)
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return topics, err
			}
			s.logger.Warn("stopping pagination", "page", page, "error", err)
			break
		}

		pageTopics := data.TopicList.Topics
		if len(pageTopics) == 0 {
			break
		}
		for _, topic := range pageTopics {
			if seen[topic.ID] || !s.inWindow(topic.CreatedAt) {
				continue
			}
			seen[topic.ID] = true
			topics = append(topics, topic)
		}

		last := pageTopics[len(pageTopics)-1]
		if !s.cfg.Since.IsZero() && last.CreatedAt.Before(s.cfg.Since) {
			break
		}
	}
	return topics, nil
}

// fetchTopic returns nil when the topic has no rendered posts.
func (s *DiscourseSource) fetchTopic(ctx context.Context, topic discourseTopic) (*domain.Document, error) {
	id := strconv.FormatInt(topic.ID, 10)

	var data topicPage
	if err := s.http.getJSON(ctx, s.cfg.BaseURL+"/t/"+id+".json", &data); err != nil {
		return nil, err
	}

	parts := make([]string, 0, len(data.PostStream.Posts))
	for _, post := range data.PostStream.Posts {
		if post.Cooked == "" {
			continue
		}
		text, err := htmlText(post.Cooked)
		if err != nil {
			return nil, err
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return nil, nil
	}

	title := data.Title
	if title == "" {
		title = topic.Title
	}
	return domain.NewDocument(
		s.cfg.BaseURL+"/t/"+id,
		title,
		strings.Join(parts, postSeparator),
		domain.SourceKindDiscoursePost,
		s.cfg.Now(),
	), nil
}

// ParseDateWindow parses YYYY-MM-DD bounds in UTC. The end date covers the
// whole day. Either bound may be empty.
func ParseDateWindow(start, end string) (since, until time.Time, err error) {
	if start != "" {
		since, err = time.Parse(dateLayout, start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: start date %q, use YYYY-MM-DD", domain.ErrInvalidInput, start)
		}
	}
	if end != "" {
		until, err = time.Parse(dateLayout, end)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: end date %q, use YYYY-MM-DD", domain.ErrInvalidInput, end)
		}
		until = until.Add(24*time.Hour - time.Nanosecond)
	}
	if !since.IsZero() && !until.IsZero() && until.Before(since) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end date %s is before start date %s", domain.ErrInvalidInput, end, start)
	}
	return since, until, nil
}
