package pool

import (
	"context"
	"database/sql/driver"
	"sync"

	"github.com/shrek82/dbcp/factory"
)

// PooledConn is the handle callers receive from Borrow. It forwards the
// driver surface to the wrapped physical connection and, on Release, hands
// the connection back to its origin partition instead of closing it.
//
// A handle is owned by exactly one borrower. Callers must guarantee Release
// runs on every exit path; a leaked handle starves the pool.
type PooledConn struct {
	mu       sync.Mutex
	pc       *pconn
	pool     *Pool
	released bool
}

// Exec executes a statement that returns no rows.
func (h *PooledConn) Exec(ctx context.Context, query string, args ...any) (driver.Result, error) {
	conn, err := h.conn()
	if err != nil {
		return nil, err
	}
	nvs, err := factory.NamedValues(args...)
	if err != nil {
		return nil, err
	}
	return conn.ExecContext(ctx, query, nvs)
}

// Query executes a statement that returns rows. The caller must close the
// returned rows before releasing the handle.
func (h *PooledConn) Query(ctx context.Context, query string, args ...any) (driver.Rows, error) {
	conn, err := h.conn()
	if err != nil {
		return nil, err
	}
	nvs, err := factory.NamedValues(args...)
	if err != nil {
		return nil, err
	}
	return conn.QueryContext(ctx, query, nvs)
}

// Begin starts a transaction on the underlying connection.
func (h *PooledConn) Begin(ctx context.Context) (driver.Tx, error) {
	conn, err := h.conn()
	if err != nil {
		return nil, err
	}
	return conn.BeginTx(ctx, driver.TxOptions{})
}

// Ping checks the underlying connection.
func (h *PooledConn) Ping(ctx context.Context) error {
	conn, err := h.conn()
	if err != nil {
		return err
	}
	return conn.Ping(ctx)
}

// Release returns the physical connection to its partition. The handle is
// unusable afterwards; any further operation fails with ErrHandleClosed.
// Release is idempotent.
func (h *PooledConn) Release() error {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return nil
	}
	h.released = true
	pc := h.pc
	h.pc = nil
	h.mu.Unlock()

	pc.part.release(pc)
	h.pool.stats.leasesReleased.inc()
	return nil
}

// Discard closes the physical connection instead of returning it to the
// idle set. Use it after a driver error that leaves the connection in an
// unknown state.
func (h *PooledConn) Discard() error {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return nil
	}
	h.released = true
	pc := h.pc
	h.pc = nil
	h.mu.Unlock()

	pc.part.discard(pc)
	h.pool.stats.leasesReleased.inc()
	return nil
}

func (h *PooledConn) conn() (factory.Conn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil, ErrHandleClosed
	}
	return h.pc.conn, nil
}
