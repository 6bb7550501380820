// Package db provides database connectivity and migration functionality.
// It owns the shared pgx connection pool, the small DBTX abstraction the
// repositories are written against, transaction helpers and the embedded
// schema migrations.
package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/landing-go/apperror"
	"github.com/user/landing-go/config"
)

// Pool is a bounded pgx pool whose connection checkout is limited by an
// acquisition timeout. A request that cannot get a connection in time fails
// with apperror.UnavailableError instead of queueing forever.
//
// Every call checks a connection out and returns it as soon as the statement,
// row scan, rows iteration or transaction is finished.
type Pool struct {
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
}

// NewPool establishes the application pool from the database configuration
// and verifies it with a ping.
func NewPool(ctx context.Context, cfg *config.DatabaseConfig) (*Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, apperror.NewConfigError("error parsing DATABASE_URL", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MaxConnIdleTime = 10 * time.Minute
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.ConnConfig.ConnectTimeout = cfg.AcquireTimeout

	createCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(createCtx, poolConfig)
	if err != nil {
		return nil, apperror.NewDatabaseError("error creating connection pool", err)
	}

	p := &Pool{pool: pool, acquireTimeout: cfg.AcquireTimeout}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := p.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	return p, nil
}

// Close closes all connections in the pool.
func (p *Pool) Close() {
	p.pool.Close()
}

// Ping checks that a connection can be acquired and the server answers.
func (p *Pool) Ping(ctx context.Context) error {
	conn, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return WrapError("database ping failed", conn.Ping(ctx))
}

func (p *Pool) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	conn, err := p.pool.Acquire(acquireCtx)
	if err != nil {
		return nil, WrapError("failed to acquire connection", err)
	}
	return conn, nil
}

// Exec runs a statement that returns no rows.
func (p *Pool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	conn, err := p.acquire(ctx)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	defer conn.Release()
	return conn.Exec(ctx, sql, args...)
}

// Query runs a statement returning rows. The connection goes back to the
// pool when the rows are exhausted or closed.
func (p *Pool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	conn, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}

	// pgx reports most query failures through rows.Err rather than here, so
	// the connection is only returned early when no Rows value exists at
	// all. Otherwise ownership moves to connRows, which releases it on the
	// final Next or on Close, whichever comes first.
	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		conn.Release()
		return nil, err
	}
	return &connRows{Rows: rows, rel: newReleaser(conn)}, nil
}

// QueryRow runs a statement returning at most one row. The connection goes
// back to the pool after Scan.
func (p *Pool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	conn, err := p.acquire(ctx)
	if err != nil {
		return errRow{err: err}
	}
	return &connRow{row: conn.QueryRow(ctx, sql, args...), rel: newReleaser(conn)}
}

// BeginTx opens a transaction on a dedicated connection, released on
// Commit or Rollback.
func (p *Pool) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	conn, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := conn.BeginTx(ctx, opts)
	if err != nil {
		conn.Release()
		return nil, err
	}
	return &connTx{Tx: tx, rel: newReleaser(conn)}, nil
}

// releaser returns a pooled connection exactly once.
type releaser struct {
	once sync.Once
	fn   func()
}

func newReleaser(conn *pgxpool.Conn) *releaser {
	return &releaser{fn: conn.Release}
}

func (r *releaser) release() {
	r.once.Do(r.fn)
}

type connRows struct {
	pgx.Rows
	rel *releaser
}

func (r *connRows) Next() bool {
	if r.Rows.Next() {
		return true
	}
	r.rel.release()
	return false
}

func (r *connRows) Close() {
	r.Rows.Close()
	r.rel.release()
}

type connRow struct {
	row pgx.Row
	rel *releaser
}

func (r *connRow) Scan(dest ...any) error {
	defer r.rel.release()
	return r.row.Scan(dest...)
}

type errRow struct {
	err error
}

func (r errRow) Scan(...any) error { return r.err }

type connTx struct {
	pgx.Tx
	rel *releaser
}

func (t *connTx) Commit(ctx context.Context) error {
	defer t.rel.release()
	return t.Tx.Commit(ctx)
}

func (t *connTx) Rollback(ctx context.Context) error {
	defer t.rel.release()
	return t.Tx.Rollback(ctx)
}

// String is used by the startup log line; it never includes credentials.
func (p *Pool) String() string {
	cfg := p.pool.Config()
	return fmt.Sprintf("postgres %s:%d/%s (max %d conns)",
		cfg.ConnConfig.Host, cfg.ConnConfig.Port, cfg.ConnConfig.Database, cfg.MaxConns)
}
