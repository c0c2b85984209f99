package driven

import (
	"context"
)

// EmbeddingService generates text embeddings
type EmbeddingService interface {
	// Embed generates embeddings for multiple texts
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a question
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Dimensions returns the embedding dimension size
	Dimensions() int

	// Model returns the model name being used
	Model() string

	// HealthCheck verifies the embedding service is available
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the embedding service
	Close() error
}

// VectorIndex is an in-process similarity index over document embeddings
type VectorIndex interface {
	// Reset drops every vector
	Reset()

	// Add indexes a vector under a document ID; insertion order breaks score ties
	Add(id string, vector []float32) error

	// Search returns up to k document IDs ordered by cosine similarity
	Search(query []float32, k int) ([]VectorMatch, error)

	// Len returns the number of indexed vectors
	Len() int
}

// VectorMatch is a single similarity hit
type VectorMatch struct {
	ID    string
	Score float64
}
