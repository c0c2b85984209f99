package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SourceKind identifies where a document was scraped from
type SourceKind string

const (
	SourceKindCourseMaterial SourceKind = "course_material"
	SourceKindDiscoursePost  SourceKind = "discourse_post"
)

// IsValid returns true for the known source kinds
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceKindCourseMaterial, SourceKindDiscoursePost:
		return true
	}
	return false
}

// documentNamespace scopes the UUIDv5 ids derived from document URLs.
var documentNamespace = uuid.MustParse("6f1c5d0e-8a0b-4a51-9b6e-2f4f3c1d7e90")

// Document is a scraped page or forum topic.
// Documents are immutable once stored; a re-scrape replaces them by ID.
type Document struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	Body       string     `json:"body"`
	SourceKind SourceKind `json:"source_kind"`
	FetchedAt  time.Time  `json:"fetched_at"`
}

// DocumentID derives the stable document ID for a canonical URL.
// The same URL always maps to the same ID, so re-scrapes overwrite in place.
func DocumentID(rawURL string) string {
	return uuid.NewSHA1(documentNamespace, []byte(strings.TrimSpace(rawURL))).String()
}

// NewDocument builds a document with its ID derived from the URL
func NewDocument(rawURL, title, body string, kind SourceKind, fetchedAt time.Time) *Document {
	rawURL = strings.TrimSpace(rawURL)
	return &Document{
		ID:         DocumentID(rawURL),
		Title:      strings.TrimSpace(title),
		URL:        rawURL,
		Body:       strings.TrimSpace(body),
		SourceKind: kind,
		FetchedAt:  fetchedAt,
	}
}

// Validate checks the invariants a stored document must satisfy
func (d *Document) Validate() error {
	if d == nil {
		return ErrInvalidInput
	}
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(d.Body) == "" {
		return fmt.Errorf("%w: document %s has an empty body", ErrInvalidInput, d.ID)
	}
	u, err := url.Parse(d.URL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: document %s has a non-absolute url %q", ErrInvalidInput, d.ID, d.URL)
	}
	if !d.SourceKind.IsValid() {
		return fmt.Errorf("%w: document %s has unknown source kind %q", ErrInvalidInput, d.ID, d.SourceKind)
	}
	return nil
}

// DisplayTitle returns the title, falling back to the URL when the title is empty
func (d *Document) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.URL
}

// IndexText is the text embedded for semantic retrieval
func (d *Document) IndexText() string {
	return d.Title + "\n" + d.Body
}

// ScoredDocument pairs a document with its relevance score.
// Scores are only comparable within a single retrieval call.
type ScoredDocument struct {
	Document *Document `json:"document"`
	Score    float64   `json:"score"`
}
