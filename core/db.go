package core

import (
	"context"
	"database/sql/driver"
	"time"

	"golang.org/x/xerrors"

	"github.com/shrek82/dbcp/config"
	"github.com/shrek82/dbcp/dialect"
	"github.com/shrek82/dbcp/factory"
	"github.com/shrek82/dbcp/logger"
	"github.com/shrek82/dbcp/pool"
)

// DB is the main entry point: an opaque data-source handle over the
// partitioned connection pool. Each query or command borrows a connection,
// uses it, and releases it; callers never touch physical connections.
type DB struct {
	pool   *pool.Pool
	cfg    config.Config
	logger logger.Logger
}

// Open resolves the dialect for cfg.Subprotocol, builds the connection
// factory and warms up the pool.
func Open(cfg config.Config) (*DB, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d, ok := dialect.Get(cfg.Subprotocol)
	if !ok {
		return nil, xerrors.Errorf("%w: unknown subprotocol %q", pool.ErrInvalidConfig, cfg.Subprotocol)
	}

	log := logger.NewStdLogger()
	f := &factory.SQLFactory{
		Driver: d.Driver(),
		DSN:    d.DSN(cfg.Subname, cfg.User, cfg.Password),
	}

	p, err := pool.Open(context.Background(), cfg.PoolConfig(), f, pool.WithLogger(log))
	if err != nil {
		return nil, err
	}

	return &DB{
		pool:   p,
		cfg:    cfg,
		logger: log,
	}, nil
}

// Close shuts down the pool.
func (db *DB) Close() error {
	return db.pool.Close()
}

// SetLogger sets a custom logger for SQL timing output.
func (db *DB) SetLogger(l logger.Logger) {
	db.logger = l
}

// Stats returns the pool's statistics snapshot.
func (db *DB) Stats() pool.StatsSnapshot {
	return db.pool.Stats()
}

// Pool exposes the underlying pool for callers that manage their own
// borrow/release lifecycle.
func (db *DB) Pool() *pool.Pool {
	return db.pool
}

// Ping borrows a connection, checks it and releases it.
func (db *DB) Ping(ctx context.Context) error {
	handle, err := db.borrow(ctx)
	if err != nil {
		return err
	}
	defer handle.Release()
	return handle.Ping(ctx)
}

// Exec executes a statement that returns no rows.
func (db *DB) Exec(query string, args ...any) (driver.Result, error) {
	return db.ExecContext(context.Background(), query, args...)
}

// ExecContext executes a statement that returns no rows, borrowing a
// connection for the duration of the call.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (driver.Result, error) {
	handle, err := db.borrow(ctx)
	if err != nil {
		return nil, err
	}
	defer handle.Release()

	start := time.Now()
	res, err := handle.Exec(ctx, query, args...)
	db.logSQL(query, time.Since(start), args...)
	return res, err
}

// Query executes a statement that returns rows.
func (db *DB) Query(query string, args ...any) (*Rows, error) {
	return db.QueryContext(context.Background(), query, args...)
}

// QueryContext executes a statement that returns rows. The borrowed
// connection stays leased until the returned Rows are closed; callers must
// close them on every path.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*Rows, error) {
	handle, err := db.borrow(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	drows, err := handle.Query(ctx, query, args...)
	db.logSQL(query, time.Since(start), args...)
	if err != nil {
		handle.Release()
		return nil, err
	}
	return newRows(drows, handle), nil
}

// QueryRow executes a statement expected to return at most one row.
func (db *DB) QueryRow(query string, args ...any) *Row {
	return db.QueryRowContext(context.Background(), query, args...)
}

// QueryRowContext executes a statement expected to return at most one row.
// Scanning the row releases the connection.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *Row {
	rows, err := db.QueryContext(ctx, query, args...)
	return &Row{rows: rows, err: err}
}

// Transaction executes fn within a transaction on a single borrowed
// connection, committing on success and rolling back on error or panic.
func (db *DB) Transaction(fn func(tx *Tx) error) error {
	return db.TransactionContext(context.Background(), fn)
}

// TransactionContext is like Transaction with a caller-supplied context.
func (db *DB) TransactionContext(ctx context.Context, fn func(tx *Tx) error) (err error) {
	handle, err := db.borrow(ctx)
	if err != nil {
		return err
	}
	defer handle.Release()

	start := time.Now()
	dtx, err := handle.Begin(ctx)
	db.logSQL("BEGIN", time.Since(start))
	if err != nil {
		return err
	}

	tx := &Tx{
		db:     db,
		ctx:    ctx,
		handle: handle,
		dtx:    dtx,
	}

	defer func() {
		if p := recover(); p != nil {
			start := time.Now()
			_ = dtx.Rollback()
			db.logSQL("ROLLBACK", time.Since(start))
			panic(p)
		} else if err != nil {
			start := time.Now()
			_ = dtx.Rollback()
			db.logSQL("ROLLBACK", time.Since(start))
		} else {
			start := time.Now()
			err = dtx.Commit()
			db.logSQL("COMMIT", time.Since(start))
		}
	}()

	err = fn(tx)
	return err
}

// borrow applies the configured borrow timeout.
func (db *DB) borrow(ctx context.Context) (*pool.PooledConn, error) {
	if db.cfg.BorrowTimeout > 0 {
		return db.pool.BorrowTimeout(ctx, db.cfg.BorrowTimeout)
	}
	return db.pool.Borrow(ctx)
}

// logSQL logs the SQL execution if a logger is set.
func (db *DB) logSQL(sql string, duration time.Duration, args ...any) {
	if db.logger != nil {
		db.logger.SQL(sql, duration, args...)
	}
}
