// Package config loads runtime configuration from defaults, an optional TOML
// file and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/virtual-ta/internal/adapters/driven/scraper"
	"github.com/custodia-labs/virtual-ta/internal/core/domain"
)

// Run modes
const (
	ModeAPI    = "api"
	ModeWorker = "worker"
	ModeAll    = "all"
)

// Store and interaction log backends
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
)

// ConfigPathEnv names the variable holding the TOML config path.
const ConfigPathEnv = "VTA_CONFIG"

// Config is the complete process configuration.
type Config struct {
	RunMode   string            `toml:"run_mode"` // "api", "worker" or "all"
	Server    ServerConfig      `toml:"server"`
	Storage   StorageConfig     `toml:"storage"`
	Retrieval RetrievalConfig   `toml:"retrieval"`
	Composer  ComposerConfig    `toml:"composer"`
	AI        domain.AISettings `toml:"ai"`
	Scraper   ScraperConfig     `toml:"scraper"`
	Scheduler SchedulerConfig   `toml:"scheduler"`
	Logging   LoggingConfig     `toml:"logging"`
}

type ServerConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	MaxBodyBytes    int64    `toml:"max_body_bytes"`
	AllowedOrigins  []string `toml:"allowed_origins"` // "*" allows any origin
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

type StorageConfig struct {
	DatabaseURL     string   `toml:"database_url"`    // postgres:// URL; empty selects SQLite
	DataDir         string   `toml:"data_dir"`        // SQLite directory
	RedisURL        string   `toml:"redis_url"`       // optional
	InteractionLog  string   `toml:"interaction_log"` // "redis", "postgres", "sqlite" or empty for auto
	RedisMaxRecords int64    `toml:"redis_max_records"`
	MaxOpenConns    int      `toml:"max_open_conns"`
	MaxIdleConns    int      `toml:"max_idle_conns"`
	ConnMaxLifetime Duration `toml:"conn_max_lifetime"`
	ConnMaxIdleTime Duration `toml:"conn_max_idle_time"`
}

type RetrievalConfig struct {
	Strategy       domain.RetrievalStrategy `toml:"strategy"`
	TopK           int                      `toml:"top_k"`
	MinTokenLength int                      `toml:"min_token_length"`
	EmbedBatchSize int                      `toml:"embed_batch_size"`
	StopWords      []string                 `toml:"stop_words"` // empty keeps the built-in list
}

type ComposerConfig struct {
	PerDocumentChars     int      `toml:"per_document_chars"`
	TotalContextChars    int      `toml:"total_context_chars"`
	FallbackExcerpts     int      `toml:"fallback_excerpts"`
	FallbackExcerptChars int      `toml:"fallback_excerpt_chars"`
	LLMTimeout           Duration `toml:"llm_timeout"`
	MaxTokens            int      `toml:"max_tokens"`
	Temperature          float64  `toml:"temperature"`
	SystemPrompt         string   `toml:"system_prompt"` // empty keeps the built-in prompt
}

type ScraperConfig struct {
	DiscourseURL      string   `toml:"discourse_url"`
	CategoryURL       string   `toml:"category_url"`
	StartDate         string   `toml:"start_date"` // YYYY-MM-DD
	EndDate           string   `toml:"end_date"`   // YYYY-MM-DD, inclusive
	MaxPages          int      `toml:"max_pages"`
	CourseURLs        []string `toml:"course_urls"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	UserAgent         string   `toml:"user_agent"`
	SeedFile          string   `toml:"seed_file"` // empty uses the bundled sample corpus
	SeedOnStart       bool     `toml:"seed_on_start"`
}

type SchedulerConfig struct {
	Enabled         bool     `toml:"enabled"`
	RefreshSchedule string   `toml:"refresh_schedule"` // cron; empty disables
	ReindexSchedule string   `toml:"reindex_schedule"` // cron; empty disables
	LockTTL         Duration `toml:"lock_ttl"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn", "error"
	Format string `toml:"format"` // "text" or "json"
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		RunMode: ModeAll,
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			MaxBodyBytes:    10 << 20,
			AllowedOrigins:  []string{"*"},
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(60 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Storage: StorageConfig{
			DataDir:         "data",
			RedisMaxRecords: 10000,
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: Duration(5 * time.Minute),
			ConnMaxIdleTime: Duration(time.Minute),
		},
		Retrieval: RetrievalConfig{
			Strategy:       domain.RetrievalKeyword,
			TopK:           5,
			MinTokenLength: 2,
			EmbedBatchSize: 64,
		},
		Composer: ComposerConfig{
			PerDocumentChars:     500,
			TotalContextChars:    3000,
			FallbackExcerpts:     3,
			FallbackExcerptChars: 200,
			LLMTimeout:           Duration(30 * time.Second),
			MaxTokens:            1000,
			Temperature:          0.1,
		},
		AI: domain.AISettings{
			LLM: domain.LLMSettings{
				Provider: domain.AIProviderOpenAI,
				Model:    "gpt-4o",
			},
		},
		Scraper: ScraperConfig{
			DiscourseURL:      scraper.DefaultDiscourseURL,
			CategoryURL:       scraper.DefaultCategoryURL,
			StartDate:         scraper.DefaultStartDate,
			EndDate:           scraper.DefaultEndDate,
			MaxPages:          100,
			RequestsPerSecond: scraper.DefaultRequestsPerSecond,
			UserAgent:         scraper.DefaultUserAgent,
			SeedOnStart:       true,
		},
		Scheduler: SchedulerConfig{
			Enabled:         true,
			RefreshSchedule: "0 3 * * *",
			ReindexSchedule: "@every 1h",
			LockTTL:         Duration(10 * time.Minute),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration: defaults, then the TOML file at path (or
// $VTA_CONFIG when path is empty), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.RunMode = getEnv("RUN_MODE", cfg.RunMode)

	// Server
	cfg.Server.Host = getEnv("HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt("PORT", cfg.Server.Port)
	cfg.Server.MaxBodyBytes = int64(getEnvInt("MAX_BODY_BYTES", int(cfg.Server.MaxBodyBytes)))
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = splitList(origins)
	}

	// Storage
	cfg.Storage.DatabaseURL = getEnv("DATABASE_URL", cfg.Storage.DatabaseURL)
	cfg.Storage.DataDir = getEnv("DATA_DIR", cfg.Storage.DataDir)
	cfg.Storage.RedisURL = getEnv("REDIS_URL", cfg.Storage.RedisURL)
	cfg.Storage.InteractionLog = getEnv("INTERACTION_LOG", cfg.Storage.InteractionLog)
	cfg.Storage.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", cfg.Storage.MaxOpenConns)
	cfg.Storage.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", cfg.Storage.MaxIdleConns)
	cfg.Storage.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", cfg.Storage.ConnMaxLifetime)
	cfg.Storage.ConnMaxIdleTime = getEnvDuration("DB_CONN_MAX_IDLE_TIME", cfg.Storage.ConnMaxIdleTime)

	// Retrieval
	cfg.Retrieval.Strategy = domain.RetrievalStrategy(getEnv("RETRIEVAL_STRATEGY", string(cfg.Retrieval.Strategy)))
	cfg.Retrieval.TopK = getEnvInt("RETRIEVAL_TOP_K", cfg.Retrieval.TopK)

	// Composer
	cfg.Composer.LLMTimeout = getEnvDuration("LLM_TIMEOUT", cfg.Composer.LLMTimeout)
	cfg.Composer.MaxTokens = getEnvInt("LLM_MAX_TOKENS", cfg.Composer.MaxTokens)

	// AI providers
	llm := &cfg.AI.LLM
	llm.Provider = domain.AIProvider(getEnv("LLM_PROVIDER", string(llm.Provider)))
	llm.Model = getEnv("LLM_MODEL", llm.Model)
	llm.BaseURL = getEnv("LLM_BASE_URL", llm.BaseURL)
	llm.APIKey = getEnv("LLM_API_KEY", llm.APIKey)
	if llm.APIKey == "" {
		llm.APIKey = providerKey(llm.Provider)
	}

	emb := &cfg.AI.Embedding
	emb.Provider = domain.AIProvider(getEnv("EMBEDDING_PROVIDER", string(emb.Provider)))
	emb.Model = getEnv("EMBEDDING_MODEL", emb.Model)
	emb.BaseURL = getEnv("EMBEDDING_BASE_URL", emb.BaseURL)
	emb.Dimensions = getEnvInt("EMBEDDING_DIMENSIONS", emb.Dimensions)
	emb.APIKey = getEnv("EMBEDDING_API_KEY", emb.APIKey)
	if emb.APIKey == "" {
		emb.APIKey = providerKey(emb.Provider)
	}

	// Scraper
	cfg.Scraper.CategoryURL = getEnv("DISCOURSE_CATEGORY_URL", cfg.Scraper.CategoryURL)
	cfg.Scraper.StartDate = getEnv("DISCOURSE_START_DATE", cfg.Scraper.StartDate)
	cfg.Scraper.EndDate = getEnv("DISCOURSE_END_DATE", cfg.Scraper.EndDate)
	if urls := os.Getenv("COURSE_URLS"); urls != "" {
		cfg.Scraper.CourseURLs = splitList(urls)
	}
	cfg.Scraper.SeedFile = getEnv("SEED_FILE", cfg.Scraper.SeedFile)
	cfg.Scraper.SeedOnStart = getEnvBool("SEED_ON_START", cfg.Scraper.SeedOnStart)

	// Scheduler
	cfg.Scheduler.Enabled = getEnvBool("SCHEDULER_ENABLED", cfg.Scheduler.Enabled)
	cfg.Scheduler.RefreshSchedule = getEnv("REFRESH_SCHEDULE", cfg.Scheduler.RefreshSchedule)
	cfg.Scheduler.ReindexSchedule = getEnv("REINDEX_SCHEDULE", cfg.Scheduler.ReindexSchedule)

	// Logging
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)
}

// providerKey returns the conventional API key variable for a provider.
func providerKey(p domain.AIProvider) string {
	switch p {
	case domain.AIProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case domain.AIProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case domain.AIProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	default:
		return ""
	}
}

// Validate rejects configurations the process cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.RunMode {
	case ModeAPI, ModeWorker, ModeAll:
	default:
		errs = append(errs, fmt.Errorf("unknown run mode %q (use: api, worker, or all)", c.RunMode))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Server.Port))
	}
	if !c.Retrieval.Strategy.IsValid() {
		errs = append(errs, fmt.Errorf("unknown retrieval strategy %q", c.Retrieval.Strategy))
	}
	if c.Retrieval.TopK <= 0 {
		errs = append(errs, fmt.Errorf("top_k must be positive, got %d", c.Retrieval.TopK))
	}
	switch c.Storage.InteractionLog {
	case "", BackendPostgres, BackendSQLite, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown interaction log backend %q", c.Storage.InteractionLog))
	}
	if c.Storage.InteractionLog == BackendRedis && c.Storage.RedisURL == "" {
		errs = append(errs, errors.New("interaction_log = redis requires redis_url"))
	}
	if c.Storage.InteractionLog == BackendPostgres && c.StoreBackend() != BackendPostgres {
		errs = append(errs, errors.New("interaction_log = postgres requires a postgres database_url"))
	}
	if c.Storage.InteractionLog == BackendSQLite && c.StoreBackend() != BackendSQLite {
		errs = append(errs, errors.New("interaction_log = sqlite requires the sqlite content store"))
	}
	if _, _, err := scraper.ParseDateWindow(c.Scraper.StartDate, c.Scraper.EndDate); err != nil {
		errs = append(errs, err)
	}
	if err := c.AI.Validate(); err != nil {
		errs = append(errs, err)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Logging.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

// StoreBackend reports which content store DatabaseURL selects.
func (c *Config) StoreBackend() string {
	u := strings.ToLower(c.Storage.DatabaseURL)
	if strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://") {
		return BackendPostgres
	}
	return BackendSQLite
}

// LogBackend reports the interaction log backend. Without an explicit
// choice Redis wins when configured, otherwise the log shares the store.
func (c *Config) LogBackend() string {
	if c.Storage.InteractionLog != "" {
		return c.Storage.InteractionLog
	}
	if c.Storage.RedisURL != "" {
		return BackendRedis
	}
	return c.StoreBackend()
}

// Duration is a time.Duration written as "30s" or "5m" in TOML.
type Duration time.Duration

// Std returns the standard library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue Duration) Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return Duration(d)
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
