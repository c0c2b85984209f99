package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/virtual-ta/internal/adapters/driven/sqlite"
	"github.com/custodia-labs/virtual-ta/internal/config"
	"github.com/custodia-labs/virtual-ta/internal/core/domain"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestOpen_SQLiteDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.DataDir = t.TempDir()

	b, err := Open(context.Background(), cfg, quiet)
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, config.BackendSQLite, b.StoreBackend)
	assert.Equal(t, config.BackendSQLite, b.LogBackend)
	assert.Nil(t, b.Lock)
	require.Len(t, b.Checks, 1)
	assert.Equal(t, "sqlite", b.Checks[0].Name)
	assert.NoError(t, b.Checks[0].Pinger.Ping(context.Background()))
	assert.FileExists(t, filepath.Join(cfg.Storage.DataDir, sqlite.DefaultFileName))

	ctx := context.Background()
	doc := domain.NewDocument("https://tds.s-anand.net/#/docker", "Docker", "Use podman.", domain.SourceKindCourseMaterial, time.Now())
	require.NoError(t, b.Store.SaveBatch(ctx, []*domain.Document{doc}))
	count, err := b.Store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, b.Log.Append(ctx, &domain.InteractionRecord{
		ID:           "r1",
		Question:     "podman?",
		Answer:       "yes",
		ResponseTime: 250 * time.Millisecond,
		CreatedAt:    time.Now(),
	}))
	stats, err := b.Log.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalQuestions)
}

func TestOpen_RedisLogAndLock(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Storage.RedisURL = "redis://" + mr.Addr()

	b, err := Open(context.Background(), cfg, quiet)
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, config.BackendSQLite, b.StoreBackend)
	assert.Equal(t, config.BackendRedis, b.LogBackend)
	require.NotNil(t, b.Lock)
	require.Len(t, b.Checks, 2)
	assert.Equal(t, "redis", b.Checks[1].Name)

	ok, err := b.Lock.Acquire(context.Background(), "refresh", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpen_BadRedisURL(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Storage.RedisURL = "not a url"

	_, err := Open(context.Background(), cfg, quiet)
	assert.Error(t, err)
}

func TestClose_Idempotent(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.DataDir = t.TempDir()

	b, err := Open(context.Background(), cfg, quiet)
	require.NoError(t, err)
	assert.NoError(t, b.Close())
	assert.NoError(t, b.Close())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, level := NewLogger(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	level.Set(slog.LevelDebug)
	logger.Debug("now visible")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "v", entry["k"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}
