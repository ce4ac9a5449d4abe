// Package storage is the append-only persistence surface: weather logs,
// alert history, and the SOS archive. Everything else in the system lives
// in the per-source caches; this is the part that survives them.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds database connection configuration.
type Config struct {
	// URL is the postgres connection string. Empty disables persistence.
	URL string

	// MaxConns bounds the pool. Default: 10.
	MaxConns int

	// MinConns keeps warm connections. Default: 2.
	MinConns int

	// ConnMaxLifetime recycles connections. Default: 5m.
	ConnMaxLifetime time.Duration
}

// Connect creates a connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	minConns := cfg.MinConns
	if minConns <= 0 {
		minConns = 2
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime == 0 {
		lifetime = 5 * time.Minute
	}

	poolConfig.MaxConns = int32(maxConns) //nolint:gosec // bounded by config validation
	poolConfig.MinConns = int32(minConns) //nolint:gosec // bounded by config validation
	poolConfig.MaxConnLifetime = lifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}
