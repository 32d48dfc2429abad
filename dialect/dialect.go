package dialect

import (
	"database/sql/driver"
)

// Dialect binds a subprotocol name to a concrete SQL driver and its
// connection string format. Each supported database registers one.
type Dialect interface {
	// Driver returns the database/sql/driver implementation used to open
	// physical connections.
	Driver() driver.Driver
	// DSN builds the driver connection string from the subname (the
	// driver-specific locator, e.g. "//localhost:3306/mydb") and credentials.
	DSN(subname, user, password string) string
}

var dialects = make(map[string]Dialect)

// Register registers a new dialect for a given subprotocol name
func Register(name string, d Dialect) {
	dialects[name] = d
}

// Get retrieves a registered dialect by subprotocol name
func Get(name string) (Dialect, bool) {
	d, ok := dialects[name]
	return d, ok
}
