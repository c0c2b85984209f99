package services

import (
	"io"
	"log/slog"
	"time"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/virtual-ta/internal/runtime"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var baseTime = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func testDoc(slug, title, body string, age time.Duration) *domain.Document {
	return domain.NewDocument(
		"https://discourse.onlinedegree.iitm.ac.in/t/"+slug,
		title,
		body,
		domain.SourceKindDiscoursePost,
		baseTime.Add(-age),
	)
}

// createTestServices creates runtime services with optional backends
func createTestServices(embedding *mocks.MockEmbeddingService, llm *mocks.MockLLMService) *runtime.Services {
	services := runtime.NewServices(domain.NewRuntimeConfig("sqlite", "sqlite"))
	if embedding != nil {
		services.SetEmbeddingService(embedding)
	}
	if llm != nil {
		services.SetLLMService(llm)
	}
	return services
}

func ids(docs []domain.ScoredDocument) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Document.ID
	}
	return out
}
