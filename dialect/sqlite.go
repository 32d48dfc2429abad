package dialect

import (
	"database/sql/driver"

	"github.com/mattn/go-sqlite3"
)

// SQLite dialect implementation
type sqlite struct{}

func init() {
	Register("sqlite", &sqlite{})
	Register("sqlite3", &sqlite{})
}

func (d *sqlite) Driver() driver.Driver {
	return &sqlite3.SQLiteDriver{}
}

// DSN returns the subname unchanged: for SQLite it is the database file
// path (or ":memory:"). Credentials do not apply.
func (d *sqlite) DSN(subname, _, _ string) string {
	return subname
}
