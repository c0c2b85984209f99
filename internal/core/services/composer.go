package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
	"github.com/custodia-labs/virtual-ta/internal/runtime"
)

// DefaultSystemPrompt frames the language model as the course TA
const DefaultSystemPrompt = `You are a helpful Teaching Assistant for the Tools in Data Science course at IIT Madras.

Answer student questions using the course content and forum discussions provided with each question.

Guidelines:
1. Base your answer on the provided context.
2. When a question involves choosing between tools or models, follow the requirements stated in the course material.
3. Be concise but complete.
4. If the context does not contain the answer, say so clearly.
5. Prefer practical, actionable advice.`

const (
	noAnswerText = "I couldn't find specific information about your question in the course materials. " +
		"Please try rephrasing your question or check the course resources directly."
	imageNoteText = "Note: you attached an image, but it can only be analysed when the language model is available. " +
		"Please describe what the image shows so I can help better."
	emptyContextText = "No relevant course content was found."
)

// ComposerConfig holds prompt budgets and language model call settings
type ComposerConfig struct {
	PerDocumentChars     int
	TotalContextChars    int
	FallbackExcerpts     int
	FallbackExcerptChars int
	LLMTimeout           time.Duration
	MaxTokens            int
	Temperature          float64
	SystemPrompt         string
}

// DefaultComposerConfig returns the default composer settings
func DefaultComposerConfig() ComposerConfig {
	return ComposerConfig{
		PerDocumentChars:     500,
		TotalContextChars:    3000,
		FallbackExcerpts:     3,
		FallbackExcerptChars: 200,
		LLMTimeout:           30 * time.Second,
		MaxTokens:            1000,
		Temperature:          0.1,
		SystemPrompt:         DefaultSystemPrompt,
	}
}

// ContextExcerpt is one document's share of the context block
type ContextExcerpt struct {
	Document *domain.Document
	Text     string
}

// AnswerComposer turns retrieved documents into an answer.
// Compose never fails: every language model failure ends in the fallback answer.
type AnswerComposer struct {
	services *runtime.Services
	cfg      ComposerConfig
	logger   *slog.Logger
}

// NewAnswerComposer creates a composer; the LLM backend is looked up per call
func NewAnswerComposer(services *runtime.Services, cfg ComposerConfig, logger *slog.Logger) *AnswerComposer {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultComposerConfig()
	if cfg.PerDocumentChars <= 0 {
		cfg.PerDocumentChars = defaults.PerDocumentChars
	}
	if cfg.TotalContextChars <= 0 {
		cfg.TotalContextChars = defaults.TotalContextChars
	}
	if cfg.FallbackExcerpts <= 0 {
		cfg.FallbackExcerpts = defaults.FallbackExcerpts
	}
	if cfg.FallbackExcerptChars <= 0 {
		cfg.FallbackExcerptChars = defaults.FallbackExcerptChars
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = defaults.LLMTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaults.SystemPrompt
	}
	return &AnswerComposer{services: services, cfg: cfg, logger: logger}
}

// Compose answers question from docs, which must be in ranking order
func (c *AnswerComposer) Compose(ctx context.Context, question string, image *domain.Image, docs []domain.ScoredDocument) *domain.AnswerResult {
	links := BuildLinks(docs)

	if llm := c.services.LLMService(); llm != nil {
		answer, err := c.complete(ctx, llm, question, image, docs)
		if err == nil {
			return &domain.AnswerResult{Answer: answer, Links: links}
		}
		c.logFailure(llm.Model(), err)
	}

	return c.Fallback(docs, image != nil, links)
}

func (c *AnswerComposer) complete(ctx context.Context, llm driven.LLMService, question string, image *domain.Image, docs []domain.ScoredDocument) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.LLMTimeout)
	defer cancel()

	answer, err := llm.Complete(ctx, driven.CompletionRequest{
		System:      c.cfg.SystemPrompt,
		Prompt:      c.BuildPrompt(question, image != nil, c.BuildContext(docs)),
		Image:       image,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		if ctx.Err() != nil && !errors.As(err, new(*domain.BackendError)) {
			return "", domain.NewBackendError(llm.Model(), domain.FailureTimeout, err)
		}
		return "", err
	}
	if strings.TrimSpace(answer) == "" {
		return "", domain.NewBackendError(llm.Model(), domain.FailureMalformedResponse, errors.New("empty completion"))
	}
	return answer, nil
}

func (c *AnswerComposer) logFailure(model string, err error) {
	kind := domain.FailureKindOf(err)
	switch kind {
	case domain.FailureTimeout:
		c.logger.Warn("language model timed out, using fallback answer", "model", model, "timeout", c.cfg.LLMTimeout)
	case domain.FailureAuth:
		c.logger.Error("language model rejected credentials, using fallback answer", "model", model, "error", err)
	case domain.FailureQuota:
		c.logger.Warn("language model quota exhausted, using fallback answer", "model", model, "error", err)
	case domain.FailureMalformedResponse:
		c.logger.Warn("language model returned a malformed response, using fallback answer", "model", model, "error", err)
	case domain.FailureUnavailable:
		c.logger.Warn("language model unavailable, using fallback answer", "model", model, "error", err)
	default:
		c.logger.Warn("language model call failed, using fallback answer", "model", model, "kind", kind, "error", err)
	}
}

// BuildContext applies the context budgets: each body is cut to the
// per-document budget, the document crossing the total budget is cut to what
// remains, and everything after it is dropped.
func (c *AnswerComposer) BuildContext(docs []domain.ScoredDocument) []ContextExcerpt {
	remaining := c.cfg.TotalContextChars
	excerpts := make([]ContextExcerpt, 0, len(docs))
	for _, sd := range docs {
		if remaining <= 0 {
			break
		}
		text := truncateRunes(sd.Document.Body, c.cfg.PerDocumentChars)
		text = truncateRunes(text, remaining)
		remaining -= len([]rune(text))
		excerpts = append(excerpts, ContextExcerpt{Document: sd.Document, Text: text})
	}
	return excerpts
}

// BuildPrompt renders the user prompt sent with the system prompt
func (c *AnswerComposer) BuildPrompt(question string, hasImage bool, excerpts []ContextExcerpt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Student question: %s\n\nRelevant course content and discussions:\n", question)

	if len(excerpts) == 0 {
		b.WriteString(emptyContextText)
		b.WriteString("\n")
	}
	for i, ex := range excerpts {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		fmt.Fprintf(&b, "Title: %s\nURL: %s\nContent: %s\n", ex.Document.DisplayTitle(), ex.Document.URL, ex.Text)
	}

	if hasImage {
		b.WriteString("\nThe student also attached an image. Use it together with the question.\n")
	}
	b.WriteString("\nAnswer the student's question using the context above.")
	return b.String()
}

// Fallback builds the deterministic answer used without a language model
func (c *AnswerComposer) Fallback(docs []domain.ScoredDocument, hasImage bool, links []domain.Link) *domain.AnswerResult {
	if len(docs) == 0 {
		return &domain.AnswerResult{Answer: noAnswerText, Links: []domain.Link{}}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Based on the course materials I found, the best match is %q.\n", docs[0].Document.DisplayTitle())

	for i, sd := range docs {
		if i >= c.cfg.FallbackExcerpts {
			break
		}
		snippet := truncateRunes(sd.Document.Body, c.cfg.FallbackExcerptChars)
		if len([]rune(sd.Document.Body)) > c.cfg.FallbackExcerptChars {
			snippet += "..."
		}
		fmt.Fprintf(&b, "\n%d. From %q:\n   %s\n", i+1, sd.Document.DisplayTitle(), snippet)
	}

	if hasImage {
		b.WriteString("\n")
		b.WriteString(imageNoteText)
	}
	return &domain.AnswerResult{Answer: strings.TrimRight(b.String(), "\n"), Links: links}
}

// BuildLinks returns (url, title) per document in ranking order, first occurrence of each url wins
func BuildLinks(docs []domain.ScoredDocument) []domain.Link {
	links := make([]domain.Link, 0, len(docs))
	seen := make(map[string]struct{}, len(docs))
	for _, sd := range docs {
		if _, dup := seen[sd.Document.URL]; dup {
			continue
		}
		seen[sd.Document.URL] = struct{}{}
		links = append(links, domain.Link{URL: sd.Document.URL, Text: sd.Document.DisplayTitle()})
	}
	return links
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
