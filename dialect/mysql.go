package dialect

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MySQL dialect implementation
type mysqlDialect struct{}

func init() {
	Register("mysql", &mysqlDialect{})
}

func (d *mysqlDialect) Driver() driver.Driver {
	return &mysql.MySQLDriver{}
}

// DSN maps a "//host:port/dbname" subname to the go-sql-driver format
// "user:password@tcp(host:port)/dbname".
func (d *mysqlDialect) DSN(subname, user, password string) string {
	rest := strings.TrimPrefix(subname, "//")
	hostport, dbname, _ := strings.Cut(rest, "/")
	cred := ""
	if user != "" {
		cred = user
		if password != "" {
			cred += ":" + password
		}
		cred += "@"
	}
	return fmt.Sprintf("%stcp(%s)/%s", cred, hostport, dbname)
}
