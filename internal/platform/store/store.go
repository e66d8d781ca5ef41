// Package store is the postgres plumbing under the pg response store: a pooled
// connection that traces its statements, transactions and row scanning helpers
package store

import (
	"context"
	"fmt"
	"time"

	perr "likert/internal/platform/errors"
	"likert/internal/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Row exposes the minimal scan contract a single row needs
type Row interface {
	Scan(dest ...any) error
}

// Rows exposes iteration and scan over a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// CommandTag reports what a write did
type CommandTag interface {
	RowsAffected() int64
}

// RowQuerier is the read and write surface callers use for sql
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner runs fn inside one transaction
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Pinger is any seam that can report readiness
type Pinger interface{ Ping(context.Context) error }

// Config configures the pool; zero retries and timeout pick the defaults
type Config struct {
	URL      string
	AppName  string
	MaxConns int32
	LogSQL   bool
	SlowMs   int

	ConnectRetries int
	PingTimeout    time.Duration
}

// seams for tests
var (
	newPool  = pgxpool.NewWithConfig
	pingPool = func(ctx context.Context, p *pgxpool.Pool) error { return p.Ping(ctx) }

	backoffStart   = 150 * time.Millisecond
	backoffCeiling = 2 * time.Second
)

// Open builds the pool and waits, with backoff, until the server answers a ping.
// Statements are logged through log when cfg.LogSQL is set
func Open(ctx context.Context, cfg Config, log logger.Logger) (*DB, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("pg: parse url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.AppName != "" {
		pcfg.ConnConfig.RuntimeParams["application_name"] = cfg.AppName
	}
	pool, err := newPool(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: pool: %w", err)
	}

	attempts := cfg.ConnectRetries
	if attempts <= 0 {
		attempts = 20
	}
	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	backoff := backoffStart
	for i := 1; ; i++ {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		err = pingPool(pctx, pool)
		cancel()
		if err == nil {
			break
		}
		if i == attempts {
			pool.Close()
			return nil, fmt.Errorf("pg: no answer after %d pings: %w", attempts, err)
		}
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, backoffCeiling)
	}

	db := &DB{pool: pool, q: traced{q: pool, slowUS: int64(cfg.SlowMs) * 1000}}
	if cfg.LogSQL {
		db.q.tracer = LogTracer(log)
	}
	return db, nil
}

// DB is an open pool; every statement it runs passes through the tracer
type DB struct {
	pool *pgxpool.Pool
	q    traced
}

// Exec runs a statement outside any transaction
func (d *DB) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return d.q.Exec(ctx, sql, args...)
}

// Query runs a statement outside any transaction
func (d *DB) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return d.q.Query(ctx, sql, args...)
}

// QueryRow runs a statement outside any transaction
func (d *DB) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return d.q.QueryRow(ctx, sql, args...)
}

// txAttempts bounds how often Tx reruns fn after serialization or deadlock failures
const txAttempts = 3

// Tx commits when fn returns nil and rolls back otherwise. fn runs again in a fresh
// transaction when postgres reports contention, so it must not keep state between runs
func (d *DB) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	return retryTx(func() error {
		tx, err := d.pool.Begin(ctx)
		if err != nil {
			return err
		}
		return runTx(ctx, tx, traced{q: tx, tracer: d.q.tracer, slowUS: d.q.slowUS}, fn)
	})
}

func retryTx(attempt func() error) error {
	var err error
	for i := 0; i < txAttempts; i++ {
		if err = attempt(); !perr.IsRetryable(err) {
			return err
		}
	}
	return err
}

// Ping checks the pool without going through the tracer
func (d *DB) Ping(ctx context.Context) error {
	if d == nil || d.pool == nil {
		return fmt.Errorf("pg: not open")
	}
	return d.pool.Ping(ctx)
}

// Close releases the pool; safe on nil
func (d *DB) Close(context.Context) error {
	if d != nil && d.pool != nil {
		d.pool.Close()
	}
	return nil
}

type txEnder interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

func runTx(ctx context.Context, tx txEnder, q RowQuerier, fn func(q RowQuerier) error) error {
	if err := fn(q); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
