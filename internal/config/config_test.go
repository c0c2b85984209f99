package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
)

// clearEnv blanks every variable Load reads so host settings cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		ConfigPathEnv, "RUN_MODE", "HOST", "PORT", "MAX_BODY_BYTES", "ALLOWED_ORIGINS",
		"DATABASE_URL", "DATA_DIR", "REDIS_URL", "INTERACTION_LOG",
		"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_CONN_MAX_IDLE_TIME",
		"RETRIEVAL_STRATEGY", "RETRIEVAL_TOP_K", "LLM_TIMEOUT", "LLM_MAX_TOKENS",
		"LLM_PROVIDER", "LLM_MODEL", "LLM_BASE_URL", "LLM_API_KEY",
		"EMBEDDING_PROVIDER", "EMBEDDING_MODEL", "EMBEDDING_BASE_URL", "EMBEDDING_DIMENSIONS", "EMBEDDING_API_KEY",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY",
		"DISCOURSE_CATEGORY_URL", "DISCOURSE_START_DATE", "DISCOURSE_END_DATE", "COURSE_URLS",
		"SEED_FILE", "SEED_ON_START", "SCHEDULER_ENABLED", "REFRESH_SCHEDULE", "REINDEX_SCHEDULE",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "virtual-ta.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ModeAll, cfg.RunMode)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, domain.RetrievalKeyword, cfg.Retrieval.Strategy)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 30*time.Second, cfg.Composer.LLMTimeout.Std())
	assert.Equal(t, 1000, cfg.Composer.MaxTokens)
	assert.InDelta(t, 0.1, cfg.Composer.Temperature, 1e-9)
	assert.Equal(t, domain.AIProviderOpenAI, cfg.AI.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.AI.LLM.Model)
	assert.False(t, cfg.AI.LLM.IsConfigured())
	assert.Equal(t, BackendSQLite, cfg.StoreBackend())
	assert.Equal(t, BackendSQLite, cfg.LogBackend())
	assert.Equal(t, "2025-01-01", cfg.Scraper.StartDate)
	assert.Equal(t, "2025-04-14", cfg.Scraper.EndDate)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
run_mode = "api"

[server]
port = 9090
allowed_origins = ["https://tds.example.edu"]
write_timeout = "2m"

[storage]
database_url = "postgres://vta:secret@db:5432/vta?sslmode=disable"

[retrieval]
strategy = "semantic"
top_k = 8

[composer]
llm_timeout = "45s"

[ai.llm]
provider = "anthropic"
model = "claude-sonnet-4-5"
api_key = "file-key"

[ai.embedding]
provider = "openai"
model = "text-embedding-3-small"
api_key = "emb-key"

[scheduler]
reindex_schedule = "@every 30m"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ModeAPI, cfg.RunMode)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://tds.example.edu"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 2*time.Minute, cfg.Server.WriteTimeout.Std())
	assert.Equal(t, BackendPostgres, cfg.StoreBackend())
	assert.Equal(t, BackendPostgres, cfg.LogBackend())
	assert.Equal(t, domain.RetrievalSemantic, cfg.Retrieval.Strategy)
	assert.Equal(t, 8, cfg.Retrieval.TopK)
	assert.Equal(t, 45*time.Second, cfg.Composer.LLMTimeout.Std())
	assert.Equal(t, domain.AIProviderAnthropic, cfg.AI.LLM.Provider)
	assert.Equal(t, "file-key", cfg.AI.LLM.APIKey)
	assert.True(t, cfg.AI.Embedding.IsConfigured())
	assert.Equal(t, "@every 30m", cfg.Scheduler.ReindexSchedule)
	// untouched sections keep their defaults
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Std())
	assert.Equal(t, 1000, cfg.Composer.MaxTokens)
}

func TestLoad_FileFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(ConfigPathEnv, writeConfig(t, "run_mode = \"worker\"\n"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ModeWorker, cfg.RunMode)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[server]
port = 9090

[logging]
level = "debug"
`)
	t.Setenv("PORT", "7070")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("COURSE_URLS", "https://a.example/, ,https://b.example/")
	t.Setenv("SEED_ON_START", "false")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, BackendRedis, cfg.LogBackend())
	assert.Equal(t, BackendSQLite, cfg.StoreBackend())
	assert.Equal(t, "sk-env", cfg.AI.LLM.APIKey)
	assert.True(t, cfg.AI.LLM.IsConfigured())
	assert.Equal(t, 5*time.Second, cfg.Composer.LLMTimeout.Std())
	assert.Equal(t, []string{"https://a.example/", "https://b.example/"}, cfg.Scraper.CourseURLs)
	assert.False(t, cfg.Scraper.SeedOnStart)
}

func TestLoad_ProviderKeyFollowsProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("GEMINI_API_KEY", "gm-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderGemini, cfg.AI.LLM.Provider)
	assert.Equal(t, "gm-key", cfg.AI.LLM.APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "[server\nport = "))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"run mode", func(c *Config) { c.RunMode = "batch" }},
		{"port", func(c *Config) { c.Server.Port = 0 }},
		{"strategy", func(c *Config) { c.Retrieval.Strategy = "fuzzy" }},
		{"top k", func(c *Config) { c.Retrieval.TopK = 0 }},
		{"log backend", func(c *Config) { c.Storage.InteractionLog = "kafka" }},
		{"redis log without url", func(c *Config) { c.Storage.InteractionLog = BackendRedis }},
		{"postgres log on sqlite", func(c *Config) { c.Storage.InteractionLog = BackendPostgres }},
		{"sqlite log on postgres", func(c *Config) {
			c.Storage.DatabaseURL = "postgres://localhost/vta"
			c.Storage.InteractionLog = BackendSQLite
		}},
		{"embedding provider", func(c *Config) { c.AI.Embedding.Provider = domain.AIProviderAnthropic }},
		{"llm provider", func(c *Config) { c.AI.LLM.Provider = "mistral" }},
		{"date window", func(c *Config) { c.Scraper.EndDate = "14-04-2025" }},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), domain.ErrInvalidInput)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestDuration_Text(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Std())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("soon")))
}
