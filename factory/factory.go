package factory

import (
	"context"
	"database/sql/driver"

	"golang.org/x/xerrors"
)

// Conn is the operational surface of one physical database connection.
// It is implemented by sqlConn and by test fakes; the pool never looks
// past this interface into driver-specific behavior.
type Conn interface {
	ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error)
	QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error)
	BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error)
	Ping(ctx context.Context) error
	Close() error
}

// Factory opens a single new physical connection per call.
// Failures are reported as-is and never retried here.
type Factory interface {
	New(ctx context.Context) (Conn, error)
}

// NamedValues converts caller arguments to driver named values using the
// default parameter converter.
func NamedValues(args ...any) ([]driver.NamedValue, error) {
	if len(args) == 0 {
		return nil, nil
	}
	nvs := make([]driver.NamedValue, len(args))
	for i, arg := range args {
		v, err := driver.DefaultParameterConverter.ConvertValue(arg)
		if err != nil {
			return nil, xerrors.Errorf("convert argument %d: %w", i, err)
		}
		nvs[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return nvs, nil
}

func namedToValues(args []driver.NamedValue) []driver.Value {
	vs := make([]driver.Value, len(args))
	for i, nv := range args {
		vs[i] = nv.Value
	}
	return vs
}
