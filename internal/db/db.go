// Package db opens the Postgres pool shared by the API server and the
// migrate command.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PoolOptions tunes the pool. A zero field keeps whatever the DSN or pgx
// default says.
type PoolOptions struct {
	AppName         string
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
	MaxConnLifetime time.Duration
	HealthCheck     time.Duration
	PingTimeout     time.Duration
}

// DefaultPoolOptions suits a single API instance.
func DefaultPoolOptions(appName string) PoolOptions {
	return PoolOptions{
		AppName:         appName,
		MaxConnIdleTime: 5 * time.Minute,
		MaxConnLifetime: 30 * time.Minute,
		HealthCheck:     time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

// ParseConfig builds the pool config for dsn with opts applied. An
// application_name already present in the DSN wins over opts.AppName.
func ParseConfig(dsn string, opts PoolOptions) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("db: parse dsn: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if cfg.MinConns > cfg.MaxConns {
		return nil, fmt.Errorf("db: min conns %d exceeds max conns %d", cfg.MinConns, cfg.MaxConns)
	}
	if opts.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = opts.MaxConnIdleTime
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.HealthCheck > 0 {
		cfg.HealthCheckPeriod = opts.HealthCheck
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok && opts.AppName != "" {
		cfg.ConnConfig.RuntimeParams["application_name"] = opts.AppName
	}
	return cfg, nil
}

// Connect opens the pool and pings it once. The pool is closed again when
// the ping fails.
func Connect(ctx context.Context, dsn string, opts PoolOptions, logger *zap.Logger) (*pgxpool.Pool, error) {
	cfg, err := ParseConfig(dsn, opts)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db: open pool: %w", err)
	}

	pingCtx := ctx
	if opts.PingTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.PingTimeout)
		defer cancel()
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("db: no answer from %s within %s: %w", cfg.ConnConfig.Host, opts.PingTimeout, err)
		}
		return nil, fmt.Errorf("db: ping: %w", err)
	}

	if logger != nil {
		logger.Info("db connected",
			zap.String("host", cfg.ConnConfig.Host),
			zap.String("database", cfg.ConnConfig.Database),
			zap.String("application_name", cfg.ConnConfig.RuntimeParams["application_name"]),
			zap.Int32("max_conns", cfg.MaxConns),
			zap.Int32("min_conns", cfg.MinConns),
		)
	}
	return pool, nil
}
