package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
)

var _ driven.InteractionLog = (*MockInteractionLog)(nil)

// MockInteractionLog keeps records in memory
type MockInteractionLog struct {
	mu      sync.Mutex
	records []*domain.InteractionRecord

	AppendErr error
	StatsErr  error
}

// NewMockInteractionLog creates a new MockInteractionLog
func NewMockInteractionLog() *MockInteractionLog {
	return &MockInteractionLog{}
}

func (m *MockInteractionLog) Append(ctx context.Context, record *domain.InteractionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.records = append(m.records, record)
	return nil
}

func (m *MockInteractionLog) Stats(ctx context.Context) (*domain.InteractionStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StatsErr != nil {
		return nil, m.StatsErr
	}

	var withImages int64
	var seconds float64
	for _, r := range m.records {
		if r.HasImage {
			withImages++
		}
		seconds += r.ResponseTime.Seconds()
	}
	return domain.NewInteractionStats(int64(len(m.records)), withImages, seconds), nil
}

func (m *MockInteractionLog) Ping(ctx context.Context) error {
	return nil
}

// Records returns the appended records
func (m *MockInteractionLog) Records() []*domain.InteractionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.InteractionRecord, len(m.records))
	copy(out, m.records)
	return out
}
