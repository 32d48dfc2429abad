package dialect

import (
	"testing"
)

func TestRegistry(t *testing.T) {
	for _, name := range []string{"mysql", "postgresql", "postgres", "sqlite", "sqlite3"} {
		if _, ok := Get(name); !ok {
			t.Errorf("dialect %q not registered", name)
		}
	}
	if _, ok := Get("oracle"); ok {
		t.Error("unregistered dialect found")
	}
}

func TestMySQLDSN(t *testing.T) {
	d, _ := Get("mysql")
	cases := []struct {
		subname, user, password string
		want                    string
	}{
		{"//localhost:3306/blog", "blog", "secret", "blog:secret@tcp(localhost:3306)/blog"},
		{"//db.internal:3307/app", "app", "", "app@tcp(db.internal:3307)/app"},
		{"//localhost:3306/test", "", "", "tcp(localhost:3306)/test"},
	}
	for _, tc := range cases {
		if got := d.DSN(tc.subname, tc.user, tc.password); got != tc.want {
			t.Errorf("DSN(%q, %q, %q) = %q, want %q", tc.subname, tc.user, tc.password, got, tc.want)
		}
	}
}

func TestPostgresDSN(t *testing.T) {
	d, _ := Get("postgresql")
	got := d.DSN("//db:5432/app", "app", "hunter2")
	want := "postgres://app:hunter2@db:5432/app"
	if got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}

	// Credentials must be URL-escaped.
	got = d.DSN("//db:5432/app", "user@corp", "p@ss")
	want = "postgres://user%40corp:p%40ss@db:5432/app"
	if got != want {
		t.Errorf("DSN with special chars = %q, want %q", got, want)
	}
}

func TestSQLiteDSN(t *testing.T) {
	d, _ := Get("sqlite")
	if got := d.DSN("/var/data/app.db", "ignored", "ignored"); got != "/var/data/app.db" {
		t.Errorf("DSN = %q, want the subname unchanged", got)
	}
}

func TestDriverInstances(t *testing.T) {
	for _, name := range []string{"mysql", "postgresql", "sqlite"} {
		d, _ := Get(name)
		if d.Driver() == nil {
			t.Errorf("dialect %q returned a nil driver", name)
		}
	}
}
