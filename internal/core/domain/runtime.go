package domain

import "sync"

// RuntimeConfig tracks which optional backends are available at runtime.
// Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	StoreBackend string // "postgres" or "sqlite"
	LogBackend   string // "redis", "postgres" or "sqlite"

	embeddingAvailable bool
	llmAvailable       bool
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(storeBackend, logBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		StoreBackend: storeBackend,
		LogBackend:   logBackend,
	}
}

// EmbeddingAvailable returns whether embedding service is available
func (c *RuntimeConfig) EmbeddingAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable
}

// LLMAvailable returns whether LLM service is available
func (c *RuntimeConfig) LLMAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.llmAvailable
}

// SetEmbeddingAvailable updates the embedding availability flag
func (c *RuntimeConfig) SetEmbeddingAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embeddingAvailable = available
}

// SetLLMAvailable updates the LLM availability flag
func (c *RuntimeConfig) SetLLMAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.llmAvailable = available
}

// EffectiveStrategy returns the strategy that can actually be served.
// Semantic retrieval degrades to keyword when no embedding backend is available.
func (c *RuntimeConfig) EffectiveStrategy(configured RetrievalStrategy) RetrievalStrategy {
	if configured.RequiresEmbedding() && !c.EmbeddingAvailable() {
		return RetrievalKeyword
	}
	if !configured.IsValid() {
		return RetrievalKeyword
	}
	return configured
}
