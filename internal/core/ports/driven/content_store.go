package driven

import (
	"context"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
)

// ContentStore holds the scraped corpus (PostgreSQL or SQLite)
type ContentStore interface {
	// ListAll returns every document in stable store order
	ListAll(ctx context.Context) ([]*domain.Document, error)

	// Count returns total document count
	Count(ctx context.Context) (int, error)

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// SaveBatch upserts multiple documents in a transaction.
	// Documents are keyed by ID, so re-scraped pages replace their previous version.
	SaveBatch(ctx context.Context, docs []*domain.Document) error

	// Ping checks the store is reachable
	Ping(ctx context.Context) error
}
