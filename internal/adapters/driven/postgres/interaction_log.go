package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
)

var _ driven.InteractionLog = (*InteractionLog)(nil)

// InteractionLog implements driven.InteractionLog using PostgreSQL
type InteractionLog struct {
	db *DB
}

// NewInteractionLog creates a new InteractionLog
func NewInteractionLog(db *DB) *InteractionLog {
	return &InteractionLog{db: db}
}

// Append inserts a record
func (l *InteractionLog) Append(ctx context.Context, record *domain.InteractionRecord) error {
	links := record.Links
	if links == nil {
		links = []domain.Link{}
	}
	linksJSON, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("marshal links: %w", err)
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO interactions (id, question, answer, links, has_image, response_time_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		record.ID,
		record.Question,
		record.Answer,
		linksJSON,
		record.HasImage,
		float64(record.ResponseTime.Microseconds())/1000,
		record.CreatedAt,
	)
	return err
}

// Stats aggregates every interaction in one query
func (l *InteractionLog) Stats(ctx context.Context) (*domain.InteractionStats, error) {
	var total, withImages int64
	var totalMillis float64
	err := l.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE has_image),
			COALESCE(SUM(response_time_ms), 0)
		FROM interactions
	`).Scan(&total, &withImages, &totalMillis)
	if err != nil {
		return nil, err
	}
	return domain.NewInteractionStats(total, withImages, totalMillis/1000), nil
}

// Ping checks the database is reachable
func (l *InteractionLog) Ping(ctx context.Context) error {
	return l.db.Ping(ctx)
}
