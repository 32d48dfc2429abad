// dbcp-check opens a pool from DBCP_* environment variables (a .env file is
// honored), pings the database and prints the pool statistics. Exit status 1
// means the database is unreachable or the configuration is invalid.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/shrek82/dbcp/config"
	"github.com/shrek82/dbcp/core"
)

func init() {
	godotenv.Load()
}

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "dbcp-check: %v\n", err)
		os.Exit(1)
	}

	db, err := core.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dbcp-check: open: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "dbcp-check: ping: %v\n", err)
		os.Exit(1)
	}

	s := db.Stats()
	fmt.Printf("ok: %s %s\n", cfg.Subprotocol, cfg.Subname)
	fmt.Printf("  partitions=%d min/partition=%d max/partition=%d\n",
		cfg.Partitions, cfg.MinPerPartition(), cfg.MaxPerPartition())
	fmt.Printf("  active=%d idle=%d created=%d destroyed=%d leases=%d\n",
		s.ActiveCount, s.IdleCount, s.ConnectionsCreated, s.ConnectionsDestroyed, s.LeasesGranted)
}
