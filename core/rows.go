package core

import (
	"database/sql/driver"
	"fmt"
	"io"
	"time"

	"github.com/shrek82/dbcp/pool"
)

// Rows is the result set of a query. The borrowed connection stays leased
// until Close; iterate, scan and close on every path.
type Rows struct {
	drows  driver.Rows
	handle *pool.PooledConn
	cols   []string
	buf    []driver.Value
	err    error
	closed bool
}

func newRows(drows driver.Rows, handle *pool.PooledConn) *Rows {
	cols := drows.Columns()
	return &Rows{
		drows:  drows,
		handle: handle,
		cols:   cols,
		buf:    make([]driver.Value, len(cols)),
	}
}

// newTxRows builds Rows that do not own a lease; the enclosing transaction
// releases the connection.
func newTxRows(drows driver.Rows) *Rows {
	cols := drows.Columns()
	return &Rows{
		drows: drows,
		cols:  cols,
		buf:   make([]driver.Value, len(cols)),
	}
}

// Columns returns the result column names.
func (r *Rows) Columns() []string {
	return r.cols
}

// Next advances to the next row. It returns false at the end of the result
// set or on error; check Err afterwards.
func (r *Rows) Next() bool {
	if r.closed || r.err != nil {
		return false
	}
	err := r.drows.Next(r.buf)
	if err == io.EOF {
		return false
	}
	if err != nil {
		r.err = err
		return false
	}
	return true
}

// Scan copies the current row's columns into dest pointers.
func (r *Rows) Scan(dest ...any) error {
	if r.closed {
		return ErrRowsClosed
	}
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.buf) {
		return fmt.Errorf("scan: expected %d destinations, got %d", len(r.buf), len(dest))
	}
	for i, v := range r.buf {
		if err := assign(dest[i], v); err != nil {
			return fmt.Errorf("scan column %d (%s): %w", i, r.cols[i], err)
		}
	}
	return nil
}

// Err returns the error, if any, that stopped iteration.
func (r *Rows) Err() error {
	return r.err
}

// Close closes the driver rows and releases the borrowed connection back
// to the pool. Idempotent.
func (r *Rows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	err := r.drows.Close()
	if r.handle != nil {
		if rerr := r.handle.Release(); err == nil {
			err = rerr
		}
	}
	return err
}

// Row is the result of QueryRow: at most one row, scanned and closed in one
// step.
type Row struct {
	rows *Rows
	err  error
}

// Scan copies the single row into dest and releases the connection. It
// returns ErrRecordNotFound when the query matched nothing.
func (row *Row) Scan(dest ...any) error {
	if row.err != nil {
		return row.err
	}
	defer row.rows.Close()
	if !row.rows.Next() {
		if err := row.rows.Err(); err != nil {
			return err
		}
		return ErrRecordNotFound
	}
	return row.rows.Scan(dest...)
}

// assign converts a driver value into the destination pointer. Driver
// values are limited to int64, float64, bool, []byte, string, time.Time
// and nil.
func assign(dest any, v driver.Value) error {
	switch d := dest.(type) {
	case *any:
		*d = v
		return nil
	case *string:
		switch s := v.(type) {
		case string:
			*d = s
			return nil
		case []byte:
			*d = string(s)
			return nil
		}
	case *[]byte:
		switch s := v.(type) {
		case []byte:
			*d = append([]byte(nil), s...)
			return nil
		case string:
			*d = []byte(s)
			return nil
		case nil:
			*d = nil
			return nil
		}
	case *int:
		if n, ok := v.(int64); ok {
			*d = int(n)
			return nil
		}
	case *int64:
		if n, ok := v.(int64); ok {
			*d = n
			return nil
		}
	case *float64:
		switch n := v.(type) {
		case float64:
			*d = n
			return nil
		case int64:
			*d = float64(n)
			return nil
		}
	case *bool:
		switch b := v.(type) {
		case bool:
			*d = b
			return nil
		case int64:
			*d = b != 0
			return nil
		}
	case *time.Time:
		if t, ok := v.(time.Time); ok {
			*d = t
			return nil
		}
	}
	return fmt.Errorf("cannot assign %T into %T", v, dest)
}
