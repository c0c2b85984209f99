package mocks

import (
	"context"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
)

var _ driven.ContentSource = (*MockContentSource)(nil)

// MockContentSource returns a fixed set of documents
type MockContentSource struct {
	SourceName string
	Docs       []*domain.Document
	Err        error
	Fetches    int
}

func (m *MockContentSource) Name() string {
	return m.SourceName
}

func (m *MockContentSource) Fetch(ctx context.Context) ([]*domain.Document, error) {
	m.Fetches++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Docs, nil
}
