package driven

import (
	"context"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
)

// CompletionRequest is a single prompt sent to a language model
type CompletionRequest struct {
	System      string
	Prompt      string
	Image       *domain.Image // optional, sent through the provider's multimodal channel
	MaxTokens   int
	Temperature float64
}

// LLMService composes answers with a large language model.
// Every error returned is a *domain.BackendError.
type LLMService interface {
	// Complete returns the generated text for the request
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the LLM service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the LLM service
	Close() error
}
