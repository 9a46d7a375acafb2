// Package bootstrap opens the process-wide resources selected by configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskhive/taskhive/internal/app/migrate"
	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/internal/repository/memory"
	"github.com/taskhive/taskhive/internal/repository/mongodb"
	"github.com/taskhive/taskhive/internal/repository/postgres"
	"github.com/taskhive/taskhive/internal/session"
	"github.com/taskhive/taskhive/pkg/config"
)

const connectTimeout = 10 * time.Second

// OpenStore connects the configured backend and prepares its schema.
func OpenStore(ctx context.Context, cfg config.AppConfig, log *slog.Logger) (repository.Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	switch driver {
	case config.DriverMongo:
		return openMongo(ctx, cfg, log)
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, log)
	case config.DriverMemory:
		log.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func openMongo(ctx context.Context, cfg config.AppConfig, log *slog.Logger) (repository.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	repo, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}
	if err := repo.Ping(ctx); err != nil {
		_ = repo.Close(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = repo.Close(context.Background())
		return nil, err
	}
	log.Info("store ready", "driver", config.DriverMongo, "database", cfg.MongoDatabase)
	return repo, nil
}

// OpenPool dials Postgres and checks the connection.
func OpenPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func openPostgres(ctx context.Context, cfg config.AppConfig, log *slog.Logger) (repository.Store, error) {
	pool, err := OpenPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	runner, err := migrate.New(pool, cfg.MigrationsDir, log)
	if err != nil {
		pool.Close()
		return nil, err
	}
	defer runner.Close()
	if err := runner.Ensure(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info("store ready", "driver", config.DriverPostgres)
	return postgres.New(pool), nil
}

// OpenSessionStore returns the Redis session store when an address is
// configured and the in-memory one otherwise.
func OpenSessionStore(cfg config.AppConfig, log *slog.Logger) (session.Store, error) {
	addr := strings.TrimSpace(cfg.SessionRedisAddr)
	if addr == "" {
		return session.NewMemoryStore(), nil
	}
	store, err := session.NewRedisStore(addr, cfg.SessionRedisPass, cfg.SessionRedisDB, log)
	if err != nil {
		return nil, fmt.Errorf("connect session redis: %w", err)
	}
	log.Info("session store ready", "driver", "redis", "addr", addr)
	return store, nil
}
