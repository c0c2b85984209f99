package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
)

var _ driven.ContentStore = (*MockContentStore)(nil)

// MockContentStore is an in-memory ContentStore that keeps insertion order
type MockContentStore struct {
	mu    sync.RWMutex
	docs  map[string]*domain.Document
	order []string

	// Err, when set, is returned by every call
	Err error
}

// NewMockContentStore creates a store seeded with docs
func NewMockContentStore(docs ...*domain.Document) *MockContentStore {
	m := &MockContentStore{docs: make(map[string]*domain.Document)}
	for _, d := range docs {
		m.put(d)
	}
	return m
}

func (m *MockContentStore) put(doc *domain.Document) {
	if _, ok := m.docs[doc.ID]; !ok {
		m.order = append(m.order, doc.ID)
	}
	m.docs[doc.ID] = doc
}

func (m *MockContentStore) ListAll(ctx context.Context) ([]*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]*domain.Document, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, m.docs[id])
	}
	return result, nil
}

func (m *MockContentStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.docs), nil
}

func (m *MockContentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (m *MockContentStore) SaveBatch(ctx context.Context, docs []*domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, d := range docs {
		m.put(d)
	}
	return nil
}

func (m *MockContentStore) Ping(ctx context.Context) error {
	return m.Err
}
