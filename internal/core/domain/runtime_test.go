package domain

import "testing"

func TestNewRuntimeConfig(t *testing.T) {
	config := NewRuntimeConfig("postgres", "redis")

	if config == nil {
		t.Fatal("expected non-nil config")
	}
	if config.StoreBackend != "postgres" || config.LogBackend != "redis" {
		t.Errorf("unexpected backends %s/%s", config.StoreBackend, config.LogBackend)
	}
	if config.EmbeddingAvailable() {
		t.Error("expected embedding to be unavailable initially")
	}
	if config.LLMAvailable() {
		t.Error("expected LLM to be unavailable initially")
	}
}

func TestRuntimeConfig_Flags(t *testing.T) {
	config := NewRuntimeConfig("sqlite", "sqlite")

	config.SetEmbeddingAvailable(true)
	config.SetLLMAvailable(true)
	if !config.EmbeddingAvailable() || !config.LLMAvailable() {
		t.Error("expected both services to be available after setting")
	}

	config.SetEmbeddingAvailable(false)
	config.SetLLMAvailable(false)
	if config.EmbeddingAvailable() || config.LLMAvailable() {
		t.Error("expected both services to be unavailable after clearing")
	}
}

func TestRuntimeConfig_EffectiveStrategy(t *testing.T) {
	config := NewRuntimeConfig("sqlite", "sqlite")

	if got := config.EffectiveStrategy(RetrievalSemantic); got != RetrievalKeyword {
		t.Errorf("expected keyword without embedding, got %s", got)
	}
	if got := config.EffectiveStrategy(RetrievalKeyword); got != RetrievalKeyword {
		t.Errorf("expected keyword, got %s", got)
	}
	if got := config.EffectiveStrategy("bm25"); got != RetrievalKeyword {
		t.Errorf("expected unknown strategy to degrade to keyword, got %s", got)
	}

	config.SetEmbeddingAvailable(true)
	if got := config.EffectiveStrategy(RetrievalSemantic); got != RetrievalSemantic {
		t.Errorf("expected semantic with embedding, got %s", got)
	}
}

func TestRetrievalStrategy(t *testing.T) {
	if !RetrievalSemantic.RequiresEmbedding() {
		t.Error("semantic should require embedding")
	}
	if RetrievalKeyword.RequiresEmbedding() {
		t.Error("keyword should not require embedding")
	}
	if RetrievalStrategy("hybrid").IsValid() {
		t.Error("hybrid is not a supported strategy")
	}
}
