package driving

import (
	"context"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
)

// AskService answers student questions
type AskService interface {
	// Ask retrieves course material, composes an answer and logs the interaction.
	// Returns ErrInvalidInput for an empty question or undecodable image and
	// ErrStorageFailure when the content store or interaction log fails.
	Ask(ctx context.Context, req domain.AskRequest) (*domain.AnswerResult, error)
}

// StatsService reports interaction statistics
type StatsService interface {
	Stats(ctx context.Context) (*domain.InteractionStats, error)
}
