package selection

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/catalog/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewBackend builds the backend named by cfg.Backend. The returned close
// function releases pools and clients and is never nil.
func NewBackend(ctx context.Context, cfg config.SelectionConfig) (Backend, func(), error) {
	noop := func() {}

	switch strings.ToLower(cfg.Backend) {
	case "memory":
		return NewMemoryBackend(), noop, nil

	case "file", "":
		b, err := NewFileBackend(cfg.Dir)
		if err != nil {
			return nil, noop, err
		}
		return b, noop, nil

	case "postgres":
		poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("parse database url: %w", err)
		}
		poolConfig.MaxConns = int32(cfg.MaxConns)
		poolConfig.MinConns = int32(cfg.MinConns)

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, noop, fmt.Errorf("connect database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("ping database: %w", err)
		}

		b := NewPostgresBackend(pool)
		if err := b.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		slog.Info("selection backend ready", "backend", "postgres", "max_conns", cfg.MaxConns)
		return b, pool.Close, nil

	case "redis":
		client, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		slog.Info("selection backend ready", "backend", "redis", "ttl", cfg.TTL)
		return NewRedisBackend(client, cfg.TTL), func() { client.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown selection backend: %s", cfg.Backend)
	}
}
