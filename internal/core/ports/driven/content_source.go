package driven

import (
	"context"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
)

// ContentSource produces documents from an external site
type ContentSource interface {
	// Name identifies the source in logs
	Name() string

	// Fetch scrapes the source and returns its documents
	Fetch(ctx context.Context) ([]*domain.Document, error)
}
