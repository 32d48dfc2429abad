package dialect

import (
	"database/sql/driver"
	"fmt"
	"net/url"
	"strings"

	"github.com/lib/pq"
)

// PostgreSQL dialect implementation
type postgres struct{}

func init() {
	Register("postgresql", &postgres{})
	Register("postgres", &postgres{})
}

func (d *postgres) Driver() driver.Driver {
	return &pq.Driver{}
}

// DSN maps a "//host:port/dbname" subname to a lib/pq connection URL.
func (d *postgres) DSN(subname, user, password string) string {
	rest := strings.TrimPrefix(subname, "//")
	cred := ""
	if user != "" {
		cred = url.QueryEscape(user)
		if password != "" {
			cred += ":" + url.QueryEscape(password)
		}
		cred += "@"
	}
	return fmt.Sprintf("postgres://%s%s", cred, rest)
}
