package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driving"
)

var _ driving.AskService = (*askService)(nil)

type askService struct {
	retriever Retriever
	composer  *AnswerComposer
	log       driven.InteractionLog
	topK      int
	logger    *slog.Logger
}

// NewAskService creates the question answering pipeline
func NewAskService(
	retriever Retriever,
	composer *AnswerComposer,
	log driven.InteractionLog,
	topK int,
	logger *slog.Logger,
) driving.AskService {
	if logger == nil {
		logger = slog.Default()
	}
	if topK < 1 {
		topK = 5
	}
	return &askService{
		retriever: retriever,
		composer:  composer,
		log:       log,
		topK:      topK,
		logger:    logger,
	}
}

// Ask retrieves, composes and records one answer
func (s *askService) Ask(ctx context.Context, req domain.AskRequest) (*domain.AnswerResult, error) {
	start := time.Now()

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}

	image, err := domain.DecodeImage(req.Image)
	if err != nil {
		return nil, err
	}

	docs, err := s.retriever.Retrieve(ctx, question, s.topK)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrStorageFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: retrieve: %v", domain.ErrStorageFailure, err)
	}

	result := s.composer.Compose(ctx, question, image, docs)

	record := &domain.InteractionRecord{
		ID:           uuid.NewString(),
		Question:     question,
		Answer:       result.Answer,
		Links:        result.Links,
		HasImage:     image != nil,
		ResponseTime: time.Since(start),
		CreatedAt:    start.UTC(),
	}
	if err := s.log.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("%w: append interaction: %v", domain.ErrStorageFailure, err)
	}

	s.logger.Info("question answered",
		"interaction_id", record.ID,
		"strategy", s.retriever.Strategy(),
		"documents", len(docs),
		"has_image", record.HasImage,
		"duration", record.ResponseTime,
	)
	return result, nil
}
