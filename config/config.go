package config

import (
	"time"

	"golang.org/x/xerrors"

	"github.com/shrek82/dbcp/pool"
)

// Defaults applied by Normalize.
const (
	DefaultIdleTime   = 60 * time.Minute
	DefaultPartitions = 1
)

// Config is the user-facing pool specification. It is a plain immutable
// value: construct it, validate it once, and never mutate it afterwards.
type Config struct {
	// Classname is the fully qualified driver class name. It is accepted
	// for compatibility with existing configuration files; driver selection
	// in this implementation is keyed on Subprotocol.
	Classname string `toml:"classname"`
	// Subprotocol selects the registered dialect, e.g. "mysql",
	// "postgresql" or "sqlite".
	Subprotocol string `toml:"subprotocol"`
	// Subname is the driver-specific locator, e.g. "//localhost:3306/mydb"
	// or a SQLite file path.
	Subname  string `toml:"subname"`
	User     string `toml:"user"`
	Password string `toml:"password"`

	// InitPoolSize is the total number of connections opened at warm-up.
	InitPoolSize int `toml:"init-pool-size"`
	// MaxPoolSize is the total connection cap across all partitions.
	MaxPoolSize int `toml:"max-pool-size"`
	// IdleTime is how long a connection may sit unused before the sweep
	// closes it. Defaults to 60 minutes.
	IdleTime time.Duration `toml:"idle-time"`
	// Partitions is the number of independent sub-pools. Defaults to 1.
	Partitions int `toml:"partitions"`

	// BorrowTimeout is how long the access layer waits for a connection
	// when its partition is exhausted. Zero fails fast.
	BorrowTimeout time.Duration `toml:"borrow-timeout"`
	// ReclaimInterval overrides the idle sweep period.
	ReclaimInterval time.Duration `toml:"reclaim-interval"`
	// TestOnBorrow pings idle connections before handing them out.
	TestOnBorrow bool `toml:"test-on-borrow"`
}

// Normalize returns a copy with defaults filled in for unset fields.
func (c Config) Normalize() Config {
	if c.IdleTime == 0 {
		c.IdleTime = DefaultIdleTime
	}
	if c.Partitions == 0 {
		c.Partitions = DefaultPartitions
	}
	return c
}

// Validate checks the pool parameters. Driver-level fields (subname,
// credentials) are opaque here; only the dialect lookup can judge them.
func (c Config) Validate() error {
	if c.Subprotocol == "" {
		return xerrors.Errorf("%w: subprotocol is required", pool.ErrInvalidConfig)
	}
	if c.Partitions < 1 {
		return xerrors.Errorf("%w: partitions must be >= 1, got %d", pool.ErrInvalidConfig, c.Partitions)
	}
	if c.MaxPoolSize < 1 {
		return xerrors.Errorf("%w: max-pool-size must be >= 1, got %d", pool.ErrInvalidConfig, c.MaxPoolSize)
	}
	if c.InitPoolSize < 0 {
		return xerrors.Errorf("%w: init-pool-size must be >= 0, got %d", pool.ErrInvalidConfig, c.InitPoolSize)
	}
	if c.InitPoolSize > c.MaxPoolSize {
		return xerrors.Errorf("%w: init-pool-size %d exceeds max-pool-size %d",
			pool.ErrInvalidConfig, c.InitPoolSize, c.MaxPoolSize)
	}
	return nil
}

// MinPerPartition is the warm-up size of each partition. Pool totals divide
// across partitions by ceiling division, so the configured totals are
// honored within rounding and never undershot.
func (c Config) MinPerPartition() int {
	return ceilDiv(c.InitPoolSize, c.Partitions)
}

// MaxPerPartition is the cap of each partition, by the same ceiling division.
func (c Config) MaxPerPartition() int {
	return ceilDiv(c.MaxPoolSize, c.Partitions)
}

// PoolConfig derives the partition-level pool configuration.
func (c Config) PoolConfig() pool.Config {
	return pool.Config{
		MinPerPartition: c.MinPerPartition(),
		MaxPerPartition: c.MaxPerPartition(),
		Partitions:      c.Partitions,
		IdleMaxAge:      c.IdleTime,
		ReclaimInterval: c.ReclaimInterval,
		TestOnBorrow:    c.TestOnBorrow,
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
