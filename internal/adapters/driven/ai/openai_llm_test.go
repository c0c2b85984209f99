package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
)

func TestOpenAILLM_CompleteTextOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o", body["model"])
		assert.EqualValues(t, 1000, body["max_tokens"])
		assert.InDelta(t, 0.1, body["temperature"], 1e-9)

		messages := body["messages"].([]any)
		require.Len(t, messages, 2)
		assert.Equal(t, "system", messages[0].(map[string]any)["role"])
		assert.Equal(t, "the question", messages[1].(map[string]any)["content"])

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Use gpt-3.5-turbo-0125."},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	llm, err := NewOpenAILLM("sk-test", "", server.URL)
	require.NoError(t, err)

	answer, err := llm.Complete(context.Background(), driven.CompletionRequest{
		System:      "system prompt",
		Prompt:      "the question",
		MaxTokens:   1000,
		Temperature: 0.1,
	})
	require.NoError(t, err)
	assert.Equal(t, "Use gpt-3.5-turbo-0125.", answer)
}

func TestOpenAILLM_CompleteWithImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Role    string            `json:"role"`
				Content []chatContentPart `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Messages, 1)
		parts := body.Messages[0].Content
		require.Len(t, parts, 2)
		assert.Equal(t, "text", parts[0].Type)
		assert.Equal(t, "image_url", parts[1].Type)
		assert.Equal(t, "data:image/png;base64,aW1n", parts[1].ImageURL.URL)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"A screenshot."}}]}`))
	}))
	defer server.Close()

	llm, _ := NewOpenAILLM("sk-test", "gpt-4o", server.URL)
	answer, err := llm.Complete(context.Background(), driven.CompletionRequest{
		Prompt: "what is this",
		Image:  &domain.Image{Data: []byte("img"), MediaType: "image/png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "A screenshot.", answer)
}

func TestOpenAILLM_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   domain.FailureKind
	}{
		{"auth", http.StatusUnauthorized, `{"error":{"message":"Incorrect API key","type":"invalid_request_error","code":"invalid_api_key"}}`, domain.FailureAuth},
		{"quota", http.StatusTooManyRequests, `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`, domain.FailureQuota},
		{"unavailable", http.StatusServiceUnavailable, ``, domain.FailureUnavailable},
		{"no choices", http.StatusOK, `{"choices":[]}`, domain.FailureMalformedResponse},
		{"null content", http.StatusOK, `{"choices":[{"message":{"content":null}}]}`, domain.FailureMalformedResponse},
		{"not json", http.StatusOK, `<html>`, domain.FailureMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			llm, _ := NewOpenAILLM("sk-test", "gpt-4o", server.URL)
			_, err := llm.Complete(context.Background(), driven.CompletionRequest{Prompt: "q"})
			require.Error(t, err)
			assert.Equal(t, tt.kind, domain.FailureKindOf(err))
		})
	}
}

func TestOpenAILLM_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	llm, _ := NewOpenAILLM("sk-test", "gpt-4o", server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := llm.Complete(ctx, driven.CompletionRequest{Prompt: "q"})
	require.Error(t, err)
	assert.Equal(t, domain.FailureTimeout, domain.FailureKindOf(err))
}

func TestOpenAILLM_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/models/gpt-4o", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"gpt-4o","object":"model"}`))
	}))
	defer server.Close()

	llm, _ := NewOpenAILLM("sk-test", "gpt-4o", server.URL+"/")
	assert.NoError(t, llm.Ping(context.Background()))
	assert.NoError(t, llm.Close())
}

func TestNewOpenAILLM_RequiresKey(t *testing.T) {
	_, err := NewOpenAILLM("", "gpt-4o", "")
	assert.Error(t, err)
}
