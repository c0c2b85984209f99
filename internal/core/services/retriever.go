package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
	"github.com/custodia-labs/virtual-ta/internal/runtime"
)

// Retriever ranks stored documents against a question
type Retriever interface {
	// Retrieve returns at most k documents ordered by descending score
	Retrieve(ctx context.Context, question string, k int) ([]domain.ScoredDocument, error)

	// Reindex rebuilds any derived index from the content store
	Reindex(ctx context.Context) error

	// Strategy reports which strategy serves requests
	Strategy() domain.RetrievalStrategy
}

// RetrieverConfig holds retrieval tuning values
type RetrieverConfig struct {
	StopWords      []string
	MinTokenLength int
	EmbedBatchSize int
}

// DefaultRetrieverConfig returns the default tuning values
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		StopWords:      DefaultStopWords,
		MinTokenLength: 2,
		EmbedBatchSize: 64,
	}
}

// NewRetriever builds the retriever for the configured strategy.
// Semantic retrieval degrades to keyword when no embedding backend is registered.
func NewRetriever(
	strategy domain.RetrievalStrategy,
	store driven.ContentStore,
	services *runtime.Services,
	index driven.VectorIndex,
	cfg RetrieverConfig,
	logger *slog.Logger,
) Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	keyword := newKeywordRetriever(store, cfg)

	switch services.Config().EffectiveStrategy(strategy) {
	case domain.RetrievalSemantic:
		batch := cfg.EmbedBatchSize
		if batch <= 0 {
			batch = 64
		}
		return &semanticRetriever{
			store:     store,
			services:  services,
			index:     index,
			keyword:   keyword,
			logger:    logger,
			batchSize: batch,
			docs:      make(map[string]*domain.Document),
		}
	default:
		if strategy == domain.RetrievalSemantic {
			logger.Warn("semantic retrieval unavailable, using keyword retrieval")
		}
		return keyword
	}
}

func validateRetrieval(question string, k int) error {
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	if k < 1 {
		return fmt.Errorf("%w: k must be at least 1", domain.ErrInvalidInput)
	}
	return nil
}

// keywordRetriever scores documents by term overlap with the question
type keywordRetriever struct {
	store     driven.ContentStore
	tokenizer *Tokenizer
}

func newKeywordRetriever(store driven.ContentStore, cfg RetrieverConfig) *keywordRetriever {
	return &keywordRetriever{
		store:     store,
		tokenizer: NewTokenizer(cfg.StopWords, cfg.MinTokenLength),
	}
}

func (r *keywordRetriever) Strategy() domain.RetrievalStrategy {
	return domain.RetrievalKeyword
}

// Reindex is a no-op; keyword scoring reads the store on every call
func (r *keywordRetriever) Reindex(ctx context.Context) error {
	return nil
}

func (r *keywordRetriever) Retrieve(ctx context.Context, question string, k int) ([]domain.ScoredDocument, error) {
	if err := validateRetrieval(question, k); err != nil {
		return nil, err
	}

	docs, err := r.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", domain.ErrStorageFailure, err)
	}
	return r.rank(question, docs, k), nil
}

// rank scores every document by the number of question-term occurrences in
// its title and body. Ties go to the most recently fetched document, then to
// store order.
func (r *keywordRetriever) rank(question string, docs []*domain.Document, k int) []domain.ScoredDocument {
	terms := r.tokenizer.Terms(question)

	scored := make([]domain.ScoredDocument, 0, len(docs))
	seen := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		if _, dup := seen[doc.ID]; dup {
			continue
		}
		seen[doc.ID] = struct{}{}

		score := 0
		for _, tok := range r.tokenizer.Tokens(doc.Title + " " + doc.Body) {
			if _, ok := terms[tok]; ok {
				score++
			}
		}
		scored = append(scored, domain.ScoredDocument{Document: doc, Score: float64(score)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Document.FetchedAt.After(scored[j].Document.FetchedAt)
	})

	if k < len(scored) {
		scored = scored[:k]
	}
	return scored
}

// semanticRetriever ranks by embedding similarity over an in-process index.
// Any embedding failure at query time is served by keyword retrieval.
type semanticRetriever struct {
	store     driven.ContentStore
	services  *runtime.Services
	index     driven.VectorIndex
	keyword   *keywordRetriever
	logger    *slog.Logger
	batchSize int

	mu      sync.RWMutex
	docs    map[string]*domain.Document
	indexed bool
}

func (r *semanticRetriever) Strategy() domain.RetrievalStrategy {
	return domain.RetrievalSemantic
}

// Reindex embeds every stored document and swaps the index in one step
func (r *semanticRetriever) Reindex(ctx context.Context) error {
	embedder := r.services.EmbeddingService()
	if embedder == nil {
		r.markUnindexed()
		return fmt.Errorf("reindex: %w", domain.ErrServiceUnavailable)
	}

	docs, err := r.store.ListAll(ctx)
	if err != nil {
		r.markUnindexed()
		return fmt.Errorf("%w: list documents: %v", domain.ErrStorageFailure, err)
	}

	vectors := make([][]float32, 0, len(docs))
	for start := 0; start < len(docs); start += r.batchSize {
		end := min(start+r.batchSize, len(docs))
		texts := make([]string, 0, end-start)
		for _, doc := range docs[start:end] {
			texts = append(texts, doc.IndexText())
		}
		batch, err := embedder.Embed(ctx, texts)
		if err != nil {
			r.markUnindexed()
			return fmt.Errorf("embed documents %d-%d: %w", start, end, err)
		}
		if len(batch) != len(texts) {
			r.markUnindexed()
			return domain.NewBackendError(embedder.Model(), domain.FailureMalformedResponse,
				fmt.Errorf("got %d embeddings for %d documents", len(batch), len(texts)))
		}
		vectors = append(vectors, batch...)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.index.Reset()
	r.docs = make(map[string]*domain.Document, len(docs))
	for i, doc := range docs {
		if _, dup := r.docs[doc.ID]; dup {
			continue
		}
		if err := r.index.Add(doc.ID, vectors[i]); err != nil {
			r.index.Reset()
			r.docs = map[string]*domain.Document{}
			r.indexed = false
			return fmt.Errorf("index document %s: %w", doc.ID, err)
		}
		r.docs[doc.ID] = doc
	}
	r.indexed = true

	r.logger.Info("semantic index rebuilt", "documents", len(r.docs), "model", embedder.Model())
	return nil
}

func (r *semanticRetriever) markUnindexed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexed = false
}

func (r *semanticRetriever) Retrieve(ctx context.Context, question string, k int) ([]domain.ScoredDocument, error) {
	if err := validateRetrieval(question, k); err != nil {
		return nil, err
	}

	r.mu.RLock()
	indexed := r.indexed
	r.mu.RUnlock()

	embedder := r.services.EmbeddingService()
	if embedder == nil || !indexed {
		return r.keyword.Retrieve(ctx, question, k)
	}

	query, err := embedder.EmbedQuery(ctx, question)
	if err != nil {
		r.logger.Warn("query embedding failed, using keyword retrieval",
			"kind", domain.FailureKindOf(err),
			"error", err,
		)
		return r.keyword.Retrieve(ctx, question, k)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	matches, err := r.index.Search(query, k)
	if err != nil {
		r.logger.Warn("vector search failed, using keyword retrieval", "error", err)
		return r.keyword.Retrieve(ctx, question, k)
	}

	results := make([]domain.ScoredDocument, 0, len(matches))
	for _, m := range matches {
		doc, ok := r.docs[m.ID]
		if !ok {
			continue
		}
		results = append(results, domain.ScoredDocument{Document: doc, Score: m.Score})
	}
	return results, nil
}
