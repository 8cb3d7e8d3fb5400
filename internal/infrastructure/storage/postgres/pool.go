// Package postgres holds the pgx-backed infrastructure: pool, transactions,
// audit trail and idempotency records.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"storehouse/internal/infrastructure/config"
	"storehouse/pkg/logger"
)

const applicationName = "storehouse"

// PoolConfig overrides pgxpool defaults; zero values keep the DSN's settings.
type PoolConfig struct {
	DSN               string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

func PoolConfigFrom(cfg config.DatabaseConfig) PoolConfig {
	return PoolConfig{
		DSN:               cfg.DSN,
		MaxConns:          cfg.MaxConns,
		MinConns:          cfg.MinConns,
		MaxConnLifetime:   cfg.MaxConnLifetime,
		MaxConnIdleTime:   cfg.MaxConnIdleTime,
		HealthCheckPeriod: time.Minute,
	}
}

func (c PoolConfig) apply(pc *pgxpool.Config) {
	if c.MaxConns > 0 {
		pc.MaxConns = c.MaxConns
	}
	if c.MinConns > 0 {
		pc.MinConns = c.MinConns
	}
	if c.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = c.MaxConnLifetime
	}
	if c.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = c.MaxConnIdleTime
	}
	if c.HealthCheckPeriod > 0 {
		pc.HealthCheckPeriod = c.HealthCheckPeriod
	}
}

type Pool struct {
	*pgxpool.Pool
}

// NewPool connects and pings; a pool that cannot reach the server is never returned.
func NewPool(ctx context.Context, cfg PoolConfig) (*Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.apply(pc)
	pc.ConnConfig.RuntimeParams["application_name"] = applicationName
	pc.ConnConfig.RuntimeParams["timezone"] = "UTC"

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Pool{Pool: pool}, nil
}

func (p *Pool) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
}

// LogStats writes one line of pool usage.
func (p *Pool) LogStats(ctx context.Context) {
	st := p.Stat()
	logger.Info(ctx, "database pool stats",
		"total", st.TotalConns(),
		"acquired", st.AcquiredConns(),
		"idle", st.IdleConns(),
		"max", st.MaxConns(),
		"acquire_count", st.AcquireCount(),
		"acquire_duration", st.AcquireDuration(),
	)
}
