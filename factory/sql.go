package factory

import (
	"context"
	"database/sql/driver"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/xerrors"
)

// DefaultStmtCacheSize is the per-connection prepared statement cache size
// used when SQLFactory.StmtCacheSize is zero.
const DefaultStmtCacheSize = 64

// SQLFactory opens physical connections through a database/sql/driver.Driver.
// Each connection carries its own prepared statement cache.
type SQLFactory struct {
	Driver        driver.Driver
	DSN           string
	StmtCacheSize int
}

// New opens one physical connection. The driver's own dial/handshake may
// block on network I/O; callers must not hold pool locks across this call.
func (f *SQLFactory) New(ctx context.Context) (Conn, error) {
	var (
		raw driver.Conn
		err error
	)
	if dc, ok := f.Driver.(driver.DriverContext); ok {
		var connector driver.Connector
		connector, err = dc.OpenConnector(f.DSN)
		if err == nil {
			raw, err = connector.Connect(ctx)
		}
	} else {
		raw, err = f.Driver.Open(f.DSN)
	}
	if err != nil {
		return nil, xerrors.Errorf("open connection: %w", err)
	}

	size := f.StmtCacheSize
	if size <= 0 {
		size = DefaultStmtCacheSize
	}
	cache, err := lru.NewWithEvict[string, driver.Stmt](size, func(_ string, st driver.Stmt) {
		_ = st.Close()
	})
	if err != nil {
		_ = raw.Close()
		return nil, xerrors.Errorf("statement cache: %w", err)
	}

	return &sqlConn{raw: raw, stmts: cache}, nil
}

// sqlConn adapts a raw driver.Conn to the Conn interface. Exec and Query
// prefer the driver's context-aware fast paths and fall back to cached
// prepared statements.
type sqlConn struct {
	raw   driver.Conn
	stmts *lru.Cache[string, driver.Stmt]
}

func (c *sqlConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if ec, ok := c.raw.(driver.ExecerContext); ok {
		res, err := ec.ExecContext(ctx, query, args)
		if err != driver.ErrSkip {
			return res, err
		}
	}
	st, err := c.prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	if sec, ok := st.(driver.StmtExecContext); ok {
		return sec.ExecContext(ctx, args)
	}
	return st.Exec(namedToValues(args))
}

func (c *sqlConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if qc, ok := c.raw.(driver.QueryerContext); ok {
		rows, err := qc.QueryContext(ctx, query, args)
		if err != driver.ErrSkip {
			return rows, err
		}
	}
	st, err := c.prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	if sqc, ok := st.(driver.StmtQueryContext); ok {
		return sqc.QueryContext(ctx, args)
	}
	return st.Query(namedToValues(args))
}

func (c *sqlConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if bt, ok := c.raw.(driver.ConnBeginTx); ok {
		return bt.BeginTx(ctx, opts)
	}
	return c.raw.Begin()
}

// Ping reports whether the connection is still alive. Drivers without a
// Pinger are assumed healthy.
func (c *sqlConn) Ping(ctx context.Context) error {
	if p, ok := c.raw.(driver.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *sqlConn) Close() error {
	c.stmts.Purge()
	return c.raw.Close()
}

func (c *sqlConn) prepare(ctx context.Context, query string) (driver.Stmt, error) {
	if st, ok := c.stmts.Get(query); ok {
		return st, nil
	}
	var (
		st  driver.Stmt
		err error
	)
	if pc, ok := c.raw.(driver.ConnPrepareContext); ok {
		st, err = pc.PrepareContext(ctx, query)
	} else {
		st, err = c.raw.Prepare(query)
	}
	if err != nil {
		return nil, xerrors.Errorf("prepare: %w", err)
	}
	c.stmts.Add(query, st)
	return st, nil
}
