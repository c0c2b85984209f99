// Package app opens the infrastructure selected by configuration and hands
// the resulting adapters to the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/virtual-ta/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/virtual-ta/internal/adapters/driven/redis"
	"github.com/custodia-labs/virtual-ta/internal/adapters/driven/sqlite"
	httpserver "github.com/custodia-labs/virtual-ta/internal/adapters/driving/http"
	"github.com/custodia-labs/virtual-ta/internal/config"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
)

// Backends holds the opened storage adapters.
type Backends struct {
	Store driven.ContentStore
	Log   driven.InteractionLog
	Lock  driven.DistributedLock // nil when neither Redis nor Postgres is configured

	StoreBackend string
	LogBackend   string
	Checks       []httpserver.ReadinessCheck

	closers []func() error
}

// Open connects the content store, interaction log and distributed lock.
// Postgres is used when DatabaseURL is a postgres URL, otherwise SQLite under
// DataDir. Redis is optional and only used for the log and lock.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backends, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Backends{
		StoreBackend: cfg.StoreBackend(),
		LogBackend:   cfg.LogBackend(),
	}

	var (
		pg *postgres.DB
		sq *sqlite.Store
	)
	switch b.StoreBackend {
	case config.BackendPostgres:
		db, err := postgres.Connect(ctx, postgres.Config{
			URL:             cfg.Storage.DatabaseURL,
			MaxOpenConns:    cfg.Storage.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.MaxIdleConns,
			ConnMaxLifetime: cfg.Storage.ConnMaxLifetime.Std(),
			ConnMaxIdleTime: cfg.Storage.ConnMaxIdleTime.Std(),
		})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		if err := db.InitSchema(ctx); err != nil {
			b.Close()
			return nil, err
		}
		pg = db
		b.Store = postgres.NewContentStore(db)
		b.Checks = append(b.Checks, httpserver.ReadinessCheck{Name: "postgres", Pinger: db})
		logger.Info("content store ready", "backend", "postgres")
	default:
		store, err := sqlite.NewStore(cfg.Storage.DataDir)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, store.Close)
		sq = store
		b.Store = store.ContentStore()
		b.Checks = append(b.Checks, httpserver.ReadinessCheck{Name: "sqlite", Pinger: store})
		logger.Info("content store ready", "backend", "sqlite", "path", store.Path())
	}

	var client *redis.Client
	if cfg.Storage.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Storage.RedisURL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opts)
		b.closers = append(b.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			b.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("redis connected", "addr", opts.Addr)
	}

	switch b.LogBackend {
	case config.BackendRedis:
		log := redisadapter.NewInteractionLogWithOptions(client, redisadapter.DefaultKeyPrefix, cfg.Storage.RedisMaxRecords)
		b.Log = log
		b.Checks = append(b.Checks, httpserver.ReadinessCheck{Name: "redis", Pinger: log})
	case config.BackendPostgres:
		b.Log = postgres.NewInteractionLog(pg)
	default:
		b.Log = sq.InteractionLog()
	}

	switch {
	case client != nil:
		b.Lock = redisadapter.NewLock(client)
	case pg != nil:
		b.Lock = postgres.NewAdvisoryLock(pg)
	}

	logger.Info("storage configured",
		"store", b.StoreBackend,
		"interaction_log", b.LogBackend,
		"distributed_lock", b.Lock != nil,
	)
	return b, nil
}

// Close releases every connection in reverse order of opening.
func (b *Backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
