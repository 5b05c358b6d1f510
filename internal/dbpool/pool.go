// Package dbpool owns the PostgreSQL connection pool shared by the stores,
// the migration runner and the LISTEN bridge.
package dbpool

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultMaxConns leaves one connection for the LISTEN/NOTIFY bridge.
const DefaultMaxConns = 21

// applicationName tags revisor sessions in pg_stat_activity.
const applicationName = "revisor"

// Pool wraps pgxpool.Pool. The pool itself is unexported so stores go
// through their withTimeout helpers rather than holding raw connections.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects and pings. maxConns <= 0 selects DefaultMaxConns.
func NewPool(ctx context.Context, databaseURL string, maxConns int32) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	if maxConns <= 0 {
		maxConns = DefaultMaxConns
	}

	params := cfg.ConnConfig.RuntimeParams
	params["statement_timeout"] = "30000"
	if params["application_name"] == "" {
		params["application_name"] = applicationName
	}

	cfg.MaxConns = maxConns
	cfg.MinConns = min(2, maxConns)
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Pool{pool: pool}, nil
}

// Acquire checks out a dedicated connection; the LISTEN bridge holds one.
func (p *Pool) Acquire(ctx context.Context) (*pgxpool.Conn, error) {
	return p.pool.Acquire(ctx)
}

func (p *Pool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

func (p *Pool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.pool.Query(ctx, sql, args...)
}

func (p *Pool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

func (p *Pool) Begin(ctx context.Context) (pgx.Tx, error) {
	return p.pool.Begin(ctx)
}

// BeginTx starts a transaction with explicit options. Snapshot commits use
// it for read-committed with row locks.
func (p *Pool) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) { //nolint:gocritic // mirrors pgxpool.Pool.
	return p.pool.BeginTx(ctx, opts)
}

func (p *Pool) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// HealthCheck runs a trivial query so readiness sees a working session,
// not just an open socket.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var one int
	if err := p.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("health check query: %w", err)
	}

	return nil
}

// ConnString is handed to goose, which opens its own database/sql handle.
func (p *Pool) ConnString() string {
	return p.pool.Config().ConnString()
}

// Stat exposes pool counters for the metrics collector.
func (p *Pool) Stat() *pgxpool.Stat {
	return p.pool.Stat()
}

func (p *Pool) Close() {
	p.pool.Close()
}
