package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
)

var _ driven.LLMService = (*MockLLMService)(nil)

// MockLLMService records completion requests and returns a canned answer
type MockLLMService struct {
	mu       sync.Mutex
	requests []driven.CompletionRequest

	Answer string
	Err    error

	// CompleteFn overrides Answer and Err when set
	CompleteFn func(ctx context.Context, req driven.CompletionRequest) (string, error)
}

// NewMockLLMService creates a mock that answers with answer
func NewMockLLMService(answer string) *MockLLMService {
	return &MockLLMService{Answer: answer}
}

func (m *MockLLMService) Complete(ctx context.Context, req driven.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	fn := m.CompleteFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Answer, nil
}

func (m *MockLLMService) Model() string {
	return "mock-llm"
}

func (m *MockLLMService) Ping(ctx context.Context) error {
	return nil
}

func (m *MockLLMService) Close() error {
	return nil
}

// Requests returns every request seen so far
func (m *MockLLMService) Requests() []driven.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]driven.CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}
