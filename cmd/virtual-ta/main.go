package main

// @title           TDS Virtual TA API
// @version         1.0
// @description     Answers Tools in Data Science student questions from course content and forum posts.

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api
// @schemes   http https

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	_ "github.com/custodia-labs/virtual-ta/docs"
	"github.com/custodia-labs/virtual-ta/internal/adapters/driven/ai"
	"github.com/custodia-labs/virtual-ta/internal/adapters/driven/scraper"
	"github.com/custodia-labs/virtual-ta/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/virtual-ta/internal/adapters/driving/http"
	"github.com/custodia-labs/virtual-ta/internal/app"
	"github.com/custodia-labs/virtual-ta/internal/config"
	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driving"
	"github.com/custodia-labs/virtual-ta/internal/core/services"
	"github.com/custodia-labs/virtual-ta/internal/runtime"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	// Run mode from command line arg overrides RUN_MODE
	if len(os.Args) > 1 {
		cfg.RunMode = os.Args[1]
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid configuration: %v", err)
		}
	}

	logger, _ := app.NewLogger(cfg.Logging, os.Stderr)
	slog.SetDefault(logger)

	log.Printf("virtual-ta %s starting in %s mode", version, cfg.RunMode)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutdown signal received, stopping...")
		cancel()
	}()

	// ===== Storage (Postgres or SQLite, optional Redis) =====
	backends, err := app.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer backends.Close()

	// ===== AI backends (optional) =====
	runtimeConfig := domain.NewRuntimeConfig(backends.StoreBackend, backends.LogBackend)
	runtimeServices := runtime.NewServices(runtimeConfig)
	defer runtimeServices.Close()
	configureAI(ctx, ai.NewFactory(), runtimeServices, &cfg.AI)

	// ===== Services (core business logic) =====
	retriever := services.NewRetriever(
		cfg.Retrieval.Strategy,
		backends.Store,
		runtimeServices,
		vectorindex.NewMemory(),
		retrieverConfig(cfg.Retrieval),
		logger,
	)
	composer := services.NewAnswerComposer(runtimeServices, composerConfig(cfg.Composer), logger)
	askService := services.NewAskService(retriever, composer, backends.Log, cfg.Retrieval.TopK, logger)
	statsService := services.NewStatsService(backends.Log)

	seed, err := seedSource(cfg.Scraper)
	if err != nil {
		log.Fatalf("Failed to load seed corpus: %v", err)
	}
	ingestService := services.NewIngestService(services.IngestConfig{
		Store:     backends.Store,
		Retriever: retriever,
		Sources:   contentSources(cfg.Scraper, logger),
		Seed:      seed,
		Logger:    logger,
	})

	if cfg.Scraper.SeedOnStart {
		if _, err := ingestService.SeedIfEmpty(ctx); err != nil {
			log.Fatalf("Failed to seed content store: %v", err)
		}
	}
	if err := ingestService.Reindex(ctx); err != nil {
		log.Printf("Warning: initial index build failed: %v (keyword retrieval still works)", err)
	}

	log.Printf("Runtime config: store=%s, interaction_log=%s, embedding=%t, llm=%t, retrieval=%s",
		runtimeConfig.StoreBackend,
		runtimeConfig.LogBackend,
		runtimeConfig.EmbeddingAvailable(),
		runtimeConfig.LLMAvailable(),
		retriever.Strategy())

	// ===== Scheduler =====
	var scheduler *services.Scheduler
	if cfg.Scheduler.Enabled {
		scheduler, err = services.NewScheduler(services.SchedulerConfig{
			Jobs:    schedulerJobs(cfg, ingestService, logger),
			Lock:    backends.Lock,
			Logger:  logger,
			LockTTL: cfg.Scheduler.LockTTL.Std(),
		})
		if err != nil {
			log.Fatalf("Failed to create scheduler: %v", err)
		}
	} else {
		log.Println("Scheduler disabled via SCHEDULER_ENABLED=false")
	}

	server := http.NewServer(
		http.Config{
			Host:            cfg.Server.Host,
			Port:            cfg.Server.Port,
			Version:         version,
			MaxBodyBytes:    cfg.Server.MaxBodyBytes,
			AllowedOrigins:  cfg.Server.AllowedOrigins,
			ReadTimeout:     cfg.Server.ReadTimeout.Std(),
			WriteTimeout:    cfg.Server.WriteTimeout.Std(),
			ShutdownTimeout: cfg.Server.ShutdownTimeout.Std(),
		},
		askService,
		statsService,
		runtimeServices,
		logger,
		backends.Checks...,
	)

	switch cfg.RunMode {
	case config.ModeAPI:
		runAPI(ctx, server, scheduler)
	case config.ModeWorker:
		runWorker(ctx, scheduler)
	case config.ModeAll:
		// Combined mode: the worker owns the scheduler
		go runWorker(ctx, scheduler)
		runAPI(ctx, server, nil)
	}
}

// configureAI registers the configured LLM and embedding backends. A backend
// that fails its health check is logged and left out; answers then use the
// deterministic fallback and retrieval uses keywords.
func configureAI(ctx context.Context, factory driven.AIServiceFactory, rs *runtime.Services, settings *domain.AISettings) {
	llm, err := factory.CreateLLMService(&settings.LLM)
	if err != nil {
		log.Printf("Warning: LLM backend not created: %v", err)
	} else if err := rs.ValidateAndSetLLM(ctx, llm); err != nil {
		log.Printf("Warning: LLM backend unavailable: %v (using fallback answers)", err)
	}

	embedding, err := factory.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		log.Printf("Warning: embedding backend not created: %v", err)
	} else if err := rs.ValidateAndSetEmbedding(ctx, embedding); err != nil {
		log.Printf("Warning: embedding backend unavailable: %v (using keyword retrieval)", err)
	}

	status := rs.Status()
	log.Printf("AI backends: llm=%q embedding=%q", status.LLMModel, status.EmbeddingModel)
}

func retrieverConfig(cfg config.RetrievalConfig) services.RetrieverConfig {
	rc := services.DefaultRetrieverConfig()
	if len(cfg.StopWords) > 0 {
		rc.StopWords = cfg.StopWords
	}
	if cfg.MinTokenLength > 0 {
		rc.MinTokenLength = cfg.MinTokenLength
	}
	if cfg.EmbedBatchSize > 0 {
		rc.EmbedBatchSize = cfg.EmbedBatchSize
	}
	return rc
}

func composerConfig(cfg config.ComposerConfig) services.ComposerConfig {
	cc := services.DefaultComposerConfig()
	cc.PerDocumentChars = cfg.PerDocumentChars
	cc.TotalContextChars = cfg.TotalContextChars
	cc.FallbackExcerpts = cfg.FallbackExcerpts
	cc.FallbackExcerptChars = cfg.FallbackExcerptChars
	cc.LLMTimeout = cfg.LLMTimeout.Std()
	cc.MaxTokens = cfg.MaxTokens
	cc.Temperature = cfg.Temperature
	if cfg.SystemPrompt != "" {
		cc.SystemPrompt = cfg.SystemPrompt
	}
	return cc
}

func seedSource(cfg config.ScraperConfig) (driven.ContentSource, error) {
	if cfg.SeedFile == "" {
		return scraper.NewSeedSource(), nil
	}
	src, err := scraper.LoadSeedFile(cfg.SeedFile)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// contentSources builds the scrapers run by the refresh job.
func contentSources(cfg config.ScraperConfig, logger *slog.Logger) []driven.ContentSource {
	// Validated by config.Load
	since, until, _ := scraper.ParseDateWindow(cfg.StartDate, cfg.EndDate)

	sources := []driven.ContentSource{
		scraper.NewDiscourseSource(scraper.DiscourseConfig{
			BaseURL:           cfg.DiscourseURL,
			CategoryID:        scraper.CategoryIDFromURL(cfg.CategoryURL),
			Since:             since,
			Until:             until,
			MaxPages:          cfg.MaxPages,
			RequestsPerSecond: cfg.RequestsPerSecond,
			UserAgent:         cfg.UserAgent,
			Logger:            logger,
		}),
	}
	if len(cfg.CourseURLs) > 0 {
		sources = append(sources, scraper.NewCourseSource(scraper.CourseConfig{
			URLs:              cfg.CourseURLs,
			RequestsPerSecond: cfg.RequestsPerSecond,
			UserAgent:         cfg.UserAgent,
			Logger:            logger,
		}))
	}
	return sources
}

// schedulerJobs picks the jobs for the run mode: workers refresh content,
// API instances reindex to pick up what workers stored.
func schedulerJobs(cfg *config.Config, ingest driving.IngestService, logger *slog.Logger) []services.Job {
	var jobs []services.Job
	if cfg.RunMode != config.ModeAPI && cfg.Scheduler.RefreshSchedule != "" {
		jobs = append(jobs, services.Job{
			Name:     "refresh",
			Schedule: cfg.Scheduler.RefreshSchedule,
			Run: func(ctx context.Context) error {
				reports, err := ingest.Refresh(ctx)
				logger.Info("refresh finished", "sources", len(reports), "error", err)
				return err
			},
		})
	}
	if cfg.RunMode == config.ModeAPI && cfg.Scheduler.ReindexSchedule != "" {
		jobs = append(jobs, services.Job{
			Name:     "reindex",
			Schedule: cfg.Scheduler.ReindexSchedule,
			Run:      ingest.Reindex,
		})
	}
	return jobs
}

// runAPI serves HTTP until ctx is cancelled. A non-nil scheduler runs
// alongside the server.
func runAPI(ctx context.Context, server *http.Server, scheduler *services.Scheduler) {
	if scheduler != nil {
		if err := scheduler.Start(ctx); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		defer scheduler.Stop()
	}

	log.Printf("API server starting on %s", server.Addr())
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("API server stopped")
}

// runWorker runs scheduled scrape refreshes until ctx is cancelled.
func runWorker(ctx context.Context, scheduler *services.Scheduler) {
	log.Println("Starting worker mode...")
	if scheduler == nil {
		log.Println("No scheduler configured, worker idle")
		<-ctx.Done()
		return
	}

	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	log.Println("Worker started, running scheduled jobs")

	<-ctx.Done()

	log.Println("Stopping worker...")
	scheduler.Stop()
	log.Println("Worker stopped")
}
