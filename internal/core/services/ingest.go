package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driving"
)

var _ driving.IngestService = (*ingestService)(nil)

// IngestConfig wires the ingest service
type IngestConfig struct {
	Store     driven.ContentStore
	Retriever Retriever // nil skips reindexing
	Sources   []driven.ContentSource
	Seed      driven.ContentSource // optional sample corpus
	Logger    *slog.Logger
}

type ingestService struct {
	store     driven.ContentStore
	retriever Retriever
	sources   []driven.ContentSource
	seed      driven.ContentSource
	logger    *slog.Logger

	// serialises runs so reindexing never interleaves
	mu sync.Mutex
}

// NewIngestService creates an IngestService
func NewIngestService(cfg IngestConfig) driving.IngestService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ingestService{
		store:     cfg.Store,
		retriever: cfg.Retriever,
		sources:   cfg.Sources,
		seed:      cfg.Seed,
		logger:    logger,
	}
}

// Refresh scrapes every source. A failing source is reported and skipped;
// a store failure aborts the run.
func (s *ingestService) Refresh(ctx context.Context) ([]driving.IngestReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports := make([]driving.IngestReport, 0, len(s.sources))
	var fetchErrs []error
	saved := 0

	for _, src := range s.sources {
		report, err := s.ingest(ctx, src)
		if err != nil {
			if errors.Is(err, domain.ErrStorageFailure) {
				return reports, err
			}
			s.logger.Error("source fetch failed", "source", src.Name(), "error", err)
			fetchErrs = append(fetchErrs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		reports = append(reports, *report)
		saved += report.Saved
	}

	if saved > 0 {
		s.reindex(ctx)
	}
	return reports, errors.Join(fetchErrs...)
}

// SeedIfEmpty loads the seed corpus into an empty store
func (s *ingestService) SeedIfEmpty(ctx context.Context) (*driving.IngestReport, error) {
	if s.seed == nil {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: count documents: %v", domain.ErrStorageFailure, err)
	}
	if count > 0 {
		return nil, nil
	}

	report, err := s.ingest(ctx, s.seed)
	if err != nil {
		return nil, err
	}
	s.logger.Info("seeded empty content store", "documents", report.Saved)
	if report.Saved > 0 {
		s.reindex(ctx)
	}
	return report, nil
}

// Reindex rebuilds the retriever's index from the store
func (s *ingestService) Reindex(ctx context.Context) error {
	if s.retriever == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retriever.Reindex(ctx)
}

func (s *ingestService) ingest(ctx context.Context, src driven.ContentSource) (*driving.IngestReport, error) {
	docs, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	report := &driving.IngestReport{Source: src.Name(), Fetched: len(docs)}
	valid := make([]*domain.Document, 0, len(docs))
	for _, doc := range docs {
		if err := doc.Validate(); err != nil {
			report.Rejected++
			s.logger.Debug("rejected document", "source", src.Name(), "error", err)
			continue
		}
		valid = append(valid, doc)
	}

	if len(valid) > 0 {
		if err := s.store.SaveBatch(ctx, valid); err != nil {
			return nil, fmt.Errorf("%w: save documents from %s: %v", domain.ErrStorageFailure, src.Name(), err)
		}
	}
	report.Saved = len(valid)

	s.logger.Info("source ingested",
		"source", src.Name(),
		"fetched", report.Fetched,
		"saved", report.Saved,
		"rejected", report.Rejected,
	)
	return report, nil
}

// reindex keeps serving on failure; semantic retrieval falls back to keyword
func (s *ingestService) reindex(ctx context.Context) {
	if s.retriever == nil {
		return
	}
	if err := s.retriever.Reindex(ctx); err != nil {
		s.logger.Warn("reindex failed", "strategy", s.retriever.Strategy(), "error", err)
	}
}
