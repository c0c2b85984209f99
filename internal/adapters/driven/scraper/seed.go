package scraper

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
)

var _ driven.ContentSource = (*SeedSource)(nil)

//go:embed seed.json
var defaultSeed []byte

type seedEntry struct {
	URL        string            `json:"url"`
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	SourceKind domain.SourceKind `json:"source_kind"`
}

// SeedSource serves a fixed corpus, used to bootstrap an empty store.
type SeedSource struct {
	entries []seedEntry
	now     func() time.Time
}

// NewSeedSource returns the built-in sample corpus of course posts.
func NewSeedSource() *SeedSource {
	src, err := parseSeed(bytes.NewReader(defaultSeed))
	if err != nil {
		panic(fmt.Sprintf("embedded seed corpus: %v", err))
	}
	return src
}

// LoadSeedFile reads a corpus in the same JSON shape as the built-in one.
func LoadSeedFile(path string) (*SeedSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return parseSeed(f)
}

func parseSeed(r io.Reader) (*SeedSource, error) {
	var entries []seedEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &SeedSource{entries: entries, now: time.Now}, nil
}

// Name implements driven.ContentSource.
func (s *SeedSource) Name() string {
	return "seed"
}

// Fetch implements driven.ContentSource.
func (s *SeedSource) Fetch(ctx context.Context) ([]*domain.Document, error) {
	fetchedAt := s.now()
	docs := make([]*domain.Document, 0, len(s.entries))
	for _, e := range s.entries {
		docs = append(docs, domain.NewDocument(e.URL, e.Title, e.Body, e.SourceKind, fetchedAt))
	}
	return docs, nil
}
