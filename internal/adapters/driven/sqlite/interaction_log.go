package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
)

var _ driven.InteractionLog = (*interactionLog)(nil)

type interactionLog struct {
	store *Store
}

func (l *interactionLog) Append(ctx context.Context, record *domain.InteractionRecord) error {
	links := record.Links
	if links == nil {
		links = []domain.Link{}
	}
	linksJSON, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("marshaling links: %w", err)
	}

	hasImage := 0
	if record.HasImage {
		hasImage = 1
	}

	_, err = l.store.db.ExecContext(ctx, `
		INSERT INTO interactions (id, question, answer, links, has_image, response_time_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Question,
		record.Answer,
		string(linksJSON),
		hasImage,
		float64(record.ResponseTime.Microseconds())/1000,
		formatTime(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting interaction: %w", err)
	}
	return nil
}

func (l *interactionLog) Stats(ctx context.Context) (*domain.InteractionStats, error) {
	var total, withImages int64
	var totalMillis float64
	err := l.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(has_image), 0), COALESCE(SUM(response_time_ms), 0)
		FROM interactions`).Scan(&total, &withImages, &totalMillis)
	if err != nil {
		return nil, fmt.Errorf("aggregating interactions: %w", err)
	}
	return domain.NewInteractionStats(total, withImages, totalMillis/1000), nil
}

func (l *interactionLog) Ping(ctx context.Context) error {
	return l.store.Ping(ctx)
}
