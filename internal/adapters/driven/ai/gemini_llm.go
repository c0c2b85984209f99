package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
)

var _ driven.LLMService = (*GeminiLLM)(nil)

// GeminiLLM implements LLMService with the Gemini API.
// Images are sent as inline data parts.
type GeminiLLM struct {
	client *genai.Client
	model  string
}

// NewGeminiLLM creates a Gemini backed LLM service
func NewGeminiLLM(ctx context.Context, apiKey, model, baseURL string) (*GeminiLLM, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}
	return &GeminiLLM{client: client, model: model}, nil
}

// Complete sends the prompt and optional image as one user turn
func (l *GeminiLLM) Complete(ctx context.Context, req driven.CompletionRequest) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if req.Image != nil {
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, req.Image.MediaType))
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := l.client.Models.GenerateContent(ctx, l.model, contents, config)
	if err != nil {
		return "", l.classify(err)
	}

	var answer strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				answer.WriteString(part.Text)
			}
			if answer.Len() > 0 {
				break
			}
		}
	}
	if answer.Len() == 0 {
		return "", malformed(l.backend(), errors.New("no candidate text"))
	}
	return answer.String(), nil
}

// Model returns the model name being used
func (l *GeminiLLM) Model() string {
	return l.model
}

// Ping fetches the model metadata
func (l *GeminiLLM) Ping(ctx context.Context) error {
	if _, err := l.client.Models.Get(ctx, l.model, nil); err != nil {
		return l.classify(err)
	}
	return nil
}

// Close is a no-op; genai clients need no explicit shutdown
func (l *GeminiLLM) Close() error {
	return nil
}

func (l *GeminiLLM) backend() string {
	return "gemini:" + l.model
}

func (l *GeminiLLM) classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		kind := domain.ClassifyHTTPStatus(apiErr.Code)
		if apiErr.Status == "RESOURCE_EXHAUSTED" {
			kind = domain.FailureQuota
		}
		return domain.NewBackendError(l.backend(), kind, err)
	}
	return transportError(l.backend(), err)
}
