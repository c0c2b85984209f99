package driven

import (
	"context"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
)

// InteractionLog records answered questions (Redis, PostgreSQL or SQLite)
type InteractionLog interface {
	// Append stores a record; records are never modified afterwards
	Append(ctx context.Context, record *domain.InteractionRecord) error

	// Stats aggregates every appended record
	Stats(ctx context.Context) (*domain.InteractionStats, error)

	// Ping checks the log backend is reachable
	Ping(ctx context.Context) error
}
