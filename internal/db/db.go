package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const pingTimeout = 5 * time.Second

// Options configures the stockbook connection pool. URL comes from
// DATABASE_URL and MaxConns from DB_MAX_CONNS (0 keeps the pgx default).
type Options struct {
	URL      string
	MaxConns int32
}

func poolConfig(opts Options) (*pgxpool.Config, error) {
	if opts.URL == "" {
		return nil, errors.New("DATABASE_URL is empty: set it in the environment or .env")
	}
	cfg, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		// pgx errors can echo the URL; keep the password out of logs.
		return nil, errors.New("DATABASE_URL is not a valid postgres connection string")
	}
	if opts.MaxConns < 0 {
		return nil, fmt.Errorf("DB_MAX_CONNS must not be negative, got %d", opts.MaxConns)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	return cfg, nil
}

// NewPool opens the pool and verifies the database answers within pingTimeout.
func NewPool(ctx context.Context, opts Options) (*pgxpool.Pool, error) {
	cfg, err := poolConfig(opts)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open stockbook pool for %s/%s: %w", cfg.ConnConfig.Host, cfg.ConnConfig.Database, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database %s/%s from DATABASE_URL is unreachable: %w", cfg.ConnConfig.Host, cfg.ConnConfig.Database, err)
	}
	return pool, nil
}
