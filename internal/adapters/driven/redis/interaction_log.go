package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
)

var _ driven.InteractionLog = (*InteractionLog)(nil)

const (
	// DefaultKeyPrefix namespaces interaction keys.
	DefaultKeyPrefix = "vta:interactions:"
	// DefaultMaxRecords bounds the record list; the stats hash is unbounded.
	DefaultMaxRecords = 10000

	fieldTotal      = "total"
	fieldWithImages = "with_images"
	fieldTotalSecs  = "total_seconds"
)

// InteractionLog keeps running totals in a hash and the most recent
// records in a capped list. Totals are updated in the same MULTI as the
// list push so stats never disagree with what was appended.
type InteractionLog struct {
	client     redis.UniversalClient
	statsKey   string
	recordsKey string
	maxRecords int64
}

// NewInteractionLog creates a log using the default prefix and cap.
func NewInteractionLog(client redis.UniversalClient) *InteractionLog {
	return NewInteractionLogWithOptions(client, DefaultKeyPrefix, DefaultMaxRecords)
}

// NewInteractionLogWithOptions creates a log with a custom key prefix and
// record cap. A cap of zero or less keeps every record.
func NewInteractionLogWithOptions(client redis.UniversalClient, prefix string, maxRecords int64) *InteractionLog {
	return &InteractionLog{
		client:     client,
		statsKey:   prefix + "stats",
		recordsKey: prefix + "records",
		maxRecords: maxRecords,
	}
}

// Append records one interaction.
func (l *InteractionLog) Append(ctx context.Context, record *domain.InteractionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal interaction: %w", err)
	}

	withImage := int64(0)
	if record.HasImage {
		withImage = 1
	}

	pipe := l.client.TxPipeline()
	pipe.LPush(ctx, l.recordsKey, data)
	if l.maxRecords > 0 {
		pipe.LTrim(ctx, l.recordsKey, 0, l.maxRecords-1)
	}
	pipe.HIncrBy(ctx, l.statsKey, fieldTotal, 1)
	pipe.HIncrBy(ctx, l.statsKey, fieldWithImages, withImage)
	pipe.HIncrByFloat(ctx, l.statsKey, fieldTotalSecs, record.ResponseTime.Seconds())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}
	return nil
}

// Stats reads the running totals.
func (l *InteractionLog) Stats(ctx context.Context) (*domain.InteractionStats, error) {
	vals, err := l.client.HMGet(ctx, l.statsKey, fieldTotal, fieldWithImages, fieldTotalSecs).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read interaction stats: %w", err)
	}

	var total, withImages int64
	var totalSecs float64
	if err := scanField(vals, 0, &total); err != nil {
		return nil, err
	}
	if err := scanField(vals, 1, &withImages); err != nil {
		return nil, err
	}
	if err := scanField(vals, 2, &totalSecs); err != nil {
		return nil, err
	}
	return domain.NewInteractionStats(total, withImages, totalSecs), nil
}

// Recent returns up to n records, newest first.
func (l *InteractionLog) Recent(ctx context.Context, n int64) ([]*domain.InteractionRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := l.client.LRange(ctx, l.recordsKey, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read interactions: %w", err)
	}

	records := make([]*domain.InteractionRecord, 0, len(raw))
	for _, item := range raw {
		var r domain.InteractionRecord
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, fmt.Errorf("decode interaction: %w", err)
		}
		records = append(records, &r)
	}
	return records, nil
}

// Ping checks Redis is reachable.
func (l *InteractionLog) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// scanField parses a missing hash field as zero.
func scanField(vals []any, i int, dest any) error {
	if i >= len(vals) || vals[i] == nil {
		return nil
	}
	s, ok := vals[i].(string)
	if !ok {
		return fmt.Errorf("unexpected stats field type %T", vals[i])
	}
	if _, err := fmt.Sscan(s, dest); err != nil {
		return fmt.Errorf("parse stats field %q: %w", s, err)
	}
	return nil
}
