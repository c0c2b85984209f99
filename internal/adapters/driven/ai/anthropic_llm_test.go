package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
)

const anthropicReply = `{
  "id": "msg_01",
  "type": "message",
  "role": "assistant",
  "model": "claude-sonnet-4-5",
  "content": [{"type": "text", "text": "Podman is recommended."}],
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 10, "output_tokens": 5}
}`

func TestAnthropicLLM_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 1000, body["max_tokens"])
		assert.NotEmpty(t, body["system"])

		messages := body["messages"].([]any)
		content := messages[0].(map[string]any)["content"].([]any)
		require.Len(t, content, 2)
		assert.Equal(t, "image", content[0].(map[string]any)["type"])
		assert.Equal(t, "text", content[1].(map[string]any)["type"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(anthropicReply))
	}))
	defer server.Close()

	llm, err := NewAnthropicLLM("test-key", "", server.URL)
	require.NoError(t, err)

	answer, err := llm.Complete(context.Background(), driven.CompletionRequest{
		System:      "You are a TA.",
		Prompt:      "Docker or Podman?",
		Image:       &domain.Image{Data: []byte("img"), MediaType: "image/png"},
		MaxTokens:   1000,
		Temperature: 0.1,
	})
	require.NoError(t, err)
	assert.Equal(t, "Podman is recommended.", answer)
}

func TestAnthropicLLM_AuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer server.Close()

	llm, _ := NewAnthropicLLM("bad-key", "claude-sonnet-4-5", server.URL)
	_, err := llm.Complete(context.Background(), driven.CompletionRequest{Prompt: "q"})
	require.Error(t, err)
	assert.Equal(t, domain.FailureAuth, domain.FailureKindOf(err))
}

func TestAnthropicLLM_RequiresKey(t *testing.T) {
	_, err := NewAnthropicLLM("", "", "")
	assert.Error(t, err)
}
