package driving

import (
	"context"
)

// IngestReport summarises one ingest run
type IngestReport struct {
	Source   string `json:"source"`
	Fetched  int    `json:"fetched"`
	Saved    int    `json:"saved"`
	Rejected int    `json:"rejected"`
}

// IngestService fills the content store from scrapers and rebuilds the retrieval index
type IngestService interface {
	// Refresh runs every configured source, stores the documents and reindexes
	Refresh(ctx context.Context) ([]IngestReport, error)

	// SeedIfEmpty loads the bundled sample corpus when the store has no documents
	SeedIfEmpty(ctx context.Context) (*IngestReport, error)

	// Reindex rebuilds the retriever from the content store
	Reindex(ctx context.Context) error
}
