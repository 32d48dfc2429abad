package factory

import (
	"context"
	"database/sql/driver"
	"io"
	"path/filepath"
	"testing"

	"github.com/mattn/go-sqlite3"
)

func openTestConn(t *testing.T) Conn {
	t.Helper()
	f := &SQLFactory{
		Driver: &sqlite3.SQLiteDriver{},
		DSN:    filepath.Join(t.TempDir(), "factory_test.db"),
	}
	conn, err := f.New(context.Background())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSQLFactoryExecQuery(t *testing.T) {
	ctx := context.Background()
	conn := openTestConn(t)

	if _, err := conn.ExecContext(ctx, "CREATE TABLE kv (k TEXT, v INTEGER)", nil); err != nil {
		t.Fatalf("create table: %v", err)
	}

	args, err := NamedValues("answer", 42)
	if err != nil {
		t.Fatalf("NamedValues: %v", err)
	}
	res, err := conn.ExecContext(ctx, "INSERT INTO kv (k, v) VALUES (?, ?)", args)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n, err := res.RowsAffected(); err != nil || n != 1 {
		t.Errorf("RowsAffected = %d, %v; want 1, nil", n, err)
	}

	qargs, _ := NamedValues("answer")
	rows, err := conn.QueryContext(ctx, "SELECT v FROM kv WHERE k = ?", qargs)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	buf := make([]driver.Value, 1)
	if err := rows.Next(buf); err != nil {
		t.Fatalf("next: %v", err)
	}
	if got, ok := buf[0].(int64); !ok || got != 42 {
		t.Errorf("value = %v (%T), want 42", buf[0], buf[0])
	}
	if err := rows.Next(buf); err != io.EOF {
		t.Errorf("second next = %v, want io.EOF", err)
	}
}

func TestSQLFactoryTransaction(t *testing.T) {
	ctx := context.Background()
	conn := openTestConn(t)

	if _, err := conn.ExecContext(ctx, "CREATE TABLE n (v INTEGER)", nil); err != nil {
		t.Fatalf("create table: %v", err)
	}

	tx, err := conn.BeginTx(ctx, driver.TxOptions{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	args, _ := NamedValues(1)
	if _, err := conn.ExecContext(ctx, "INSERT INTO n (v) VALUES (?)", args); err != nil {
		t.Fatalf("insert in tx: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	rows, err := conn.QueryContext(ctx, "SELECT COUNT(*) FROM n", nil)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	defer rows.Close()
	buf := make([]driver.Value, 1)
	if err := rows.Next(buf); err != nil {
		t.Fatalf("next: %v", err)
	}
	if got := buf[0].(int64); got != 0 {
		t.Errorf("rows after rollback = %d, want 0", got)
	}
}

func TestSQLFactoryPing(t *testing.T) {
	conn := openTestConn(t)
	if err := conn.Ping(context.Background()); err != nil {
		t.Errorf("Ping = %v, want nil", err)
	}
}

func TestNamedValues(t *testing.T) {
	nvs, err := NamedValues("a", 7, true, 1.5)
	if err != nil {
		t.Fatalf("NamedValues failed: %v", err)
	}
	if len(nvs) != 4 {
		t.Fatalf("len = %d, want 4", len(nvs))
	}
	for i, nv := range nvs {
		if nv.Ordinal != i+1 {
			t.Errorf("ordinal[%d] = %d, want %d", i, nv.Ordinal, i+1)
		}
	}
	if nvs[1].Value != int64(7) {
		t.Errorf("int not converted to int64: %v (%T)", nvs[1].Value, nvs[1].Value)
	}

	if got, err := NamedValues(); err != nil || got != nil {
		t.Errorf("NamedValues() = %v, %v; want nil, nil", got, err)
	}

	if _, err := NamedValues(struct{ X int }{1}); err == nil {
		t.Error("NamedValues accepted an unsupported type")
	}
}
