package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driving"
)

var _ driving.StatsService = (*statsService)(nil)

type statsService struct {
	log driven.InteractionLog
}

// NewStatsService creates a StatsService backed by the interaction log
func NewStatsService(log driven.InteractionLog) driving.StatsService {
	return &statsService{log: log}
}

func (s *statsService) Stats(ctx context.Context) (*domain.InteractionStats, error) {
	stats, err := s.log.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: interaction stats: %v", domain.ErrStorageFailure, err)
	}
	return stats, nil
}
