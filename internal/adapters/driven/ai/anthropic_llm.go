package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
)

var _ driven.LLMService = (*AnthropicLLM)(nil)

// AnthropicLLM implements LLMService with the Claude messages API.
// Images are sent as base64 image blocks ahead of the prompt.
type AnthropicLLM struct {
	client anthropic.Client
	model  string
}

// NewAnthropicLLM creates a Claude backed LLM service
func NewAnthropicLLM(apiKey, model, baseURL string) (*AnthropicLLM, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}
	if model == "" {
		model = "claude-sonnet-4-5"
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// the composer falls back instead of retrying
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &AnthropicLLM{
		client: anthropic.NewClient(opts...),
		model:  model,
	}, nil
}

// Complete sends the prompt, and the image when present, as one user turn
func (l *AnthropicLLM) Complete(ctx context.Context, req driven.CompletionRequest) (string, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, 2)
	if req.Image != nil {
		blocks = append(blocks, anthropic.NewImageBlockBase64(req.Image.MediaType, req.Image.Base64()))
	}
	blocks = append(blocks, anthropic.NewTextBlock(req.Prompt))

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(l.model),
		MaxTokens:   int64(maxTokens),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := l.client.Messages.New(ctx, params)
	if err != nil {
		return "", l.classify(err)
	}

	var answer strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			answer.WriteString(block.Text)
		}
	}
	if answer.Len() == 0 {
		return "", malformed(l.backend(), errors.New("response has no text blocks"))
	}
	return answer.String(), nil
}

// Model returns the model name being used
func (l *AnthropicLLM) Model() string {
	return l.model
}

// Ping sends a one token request
func (l *AnthropicLLM) Ping(ctx context.Context) error {
	_, err := l.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(l.model),
		MaxTokens: 1,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("ping"))},
	})
	if err != nil {
		return l.classify(err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources
func (l *AnthropicLLM) Close() error {
	return nil
}

func (l *AnthropicLLM) backend() string {
	return "anthropic:" + l.model
}

func (l *AnthropicLLM) classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		kind := domain.ClassifyHTTPStatus(apiErr.StatusCode)
		if apiErr.StatusCode == 529 {
			kind = domain.FailureUnavailable
		}
		return domain.NewBackendError(l.backend(), kind, err)
	}
	return transportError(l.backend(), err)
}
