package core

import (
	"context"
	"database/sql/driver"
	"time"

	"github.com/shrek82/dbcp/pool"
)

// Tx represents a transaction running on one borrowed connection. It is
// valid only inside the function passed to DB.Transaction; the connection
// is released when that function returns.
type Tx struct {
	db     *DB
	ctx    context.Context
	handle *pool.PooledConn
	dtx    driver.Tx
}

// Exec executes a statement within the transaction.
func (tx *Tx) Exec(query string, args ...any) (driver.Result, error) {
	start := time.Now()
	res, err := tx.handle.Exec(tx.ctx, query, args...)
	tx.db.logSQL(query, time.Since(start), args...)
	return res, err
}

// Query executes a query within the transaction. The returned rows must be
// closed before the transaction function returns.
func (tx *Tx) Query(query string, args ...any) (*Rows, error) {
	start := time.Now()
	drows, err := tx.handle.Query(tx.ctx, query, args...)
	tx.db.logSQL(query, time.Since(start), args...)
	if err != nil {
		return nil, err
	}
	// The transaction owns the connection lease; Rows here only closes the
	// driver rows.
	return newTxRows(drows), nil
}
