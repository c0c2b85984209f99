package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "github.com/custodia-labs/virtual-ta/docs"
	"github.com/custodia-labs/virtual-ta/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driving"
	"github.com/custodia-labs/virtual-ta/internal/core/services"
	"github.com/custodia-labs/virtual-ta/internal/runtime"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// courseDocs is a small corpus shared by the handler tests and features
func courseDocs() []*domain.Document {
	at := time.Date(2025, 4, 14, 0, 0, 0, 0, time.UTC)
	return []*domain.Document{
		domain.NewDocument(
			"https://discourse.onlinedegree.iitm.ac.in/t/ga5-question-8-clarification/155939",
			"GA5 Question 8 Clarification",
			"You must use gpt-3.5-turbo-0125 for GA5, even if AI Proxy only supports gpt-4o-mini.",
			domain.SourceKindDiscoursePost, at,
		),
		domain.NewDocument(
			"https://discourse.onlinedegree.iitm.ac.in/t/ga5-deadline/160001",
			"GA5 deadline",
			"The GA5 submission deadline is Sunday 23:59 IST. Late GA5 submissions are not accepted.",
			domain.SourceKindDiscoursePost, at.Add(time.Hour),
		),
		domain.NewDocument(
			"https://tds.s-anand.net/#/docker",
			"Docker vs Podman",
			"We recommend Podman for this course, but Docker is fine.",
			domain.SourceKindCourseMaterial, at,
		),
	}
}

// testEnv wires the real ask pipeline over in-memory adapters
type testEnv struct {
	store    *mocks.MockContentStore
	log      *mocks.MockInteractionLog
	llm      *mocks.MockLLMService
	backends *runtime.Services
	server   *Server
}

func newTestEnv(t *testing.T, llm *mocks.MockLLMService, docs ...*domain.Document) *testEnv {
	t.Helper()
	return buildTestEnv(llm, docs...)
}

func buildTestEnv(llm *mocks.MockLLMService, docs ...*domain.Document) *testEnv {
	backends := runtime.NewServices(domain.NewRuntimeConfig("memory", "memory"))
	if llm != nil {
		backends.SetLLMService(llm)
	}

	store := mocks.NewMockContentStore(docs...)
	interactions := mocks.NewMockInteractionLog()

	retriever := services.NewRetriever(
		domain.RetrievalKeyword, store, backends, vectorindex.NewMemory(),
		services.DefaultRetrieverConfig(), quietLogger,
	)
	composerCfg := services.DefaultComposerConfig()
	composerCfg.LLMTimeout = 200 * time.Millisecond
	composer := services.NewAnswerComposer(backends, composerCfg, quietLogger)

	ask := services.NewAskService(retriever, composer, interactions, 5, quietLogger)
	stats := services.NewStatsService(interactions)

	cfg := DefaultConfig()
	cfg.Version = "test"
	cfg.MaxBodyBytes = 1 << 16
	server := NewServer(cfg, ask, stats, backends, quietLogger,
		ReadinessCheck{Name: "content_store", Pinger: store},
		ReadinessCheck{Name: "interaction_log", Pinger: interactions},
	)

	return &testEnv{store: store, log: interactions, llm: llm, backends: backends, server: server}
}

func (e *testEnv) do(method, path string, body []byte) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) ask(t *testing.T, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return e.do(http.MethodPost, "/api/", body)
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

// stubAskService returns a fixed result or error
type stubAskService struct {
	result *domain.AnswerResult
	err    error
	panics bool
}

func (s *stubAskService) Ask(ctx context.Context, req domain.AskRequest) (*domain.AnswerResult, error) {
	if s.panics {
		panic("boom")
	}
	return s.result, s.err
}

type stubStatsService struct {
	stats *domain.InteractionStats
	err   error
}

func (s *stubStatsService) Stats(ctx context.Context) (*domain.InteractionStats, error) {
	return s.stats, s.err
}

var (
	_ driving.AskService   = (*stubAskService)(nil)
	_ driving.StatsService = (*stubStatsService)(nil)
)

type failingPinger struct{}

func (failingPinger) Ping(ctx context.Context) error {
	return domain.ErrStorageFailure
}

func httptestDo(server *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	return rr
}
