package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/xerrors"
)

// fileConfig is the raw TOML shape. Duration options decode as any so both
// string forms ("30m") and bare integers survive the decode; tomlDuration
// interprets them with the same unit conventions as the env loader.
type fileConfig struct {
	Classname    string `toml:"classname"`
	Subprotocol  string `toml:"subprotocol"`
	Subname      string `toml:"subname"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	InitPoolSize int    `toml:"init-pool-size"`
	MaxPoolSize  int    `toml:"max-pool-size"`
	Partitions   int    `toml:"partitions"`

	IdleTime        any  `toml:"idle-time"`
	BorrowTimeout   any  `toml:"borrow-timeout"`
	ReclaimInterval any  `toml:"reclaim-interval"`
	TestOnBorrow    bool `toml:"test-on-borrow"`
}

// Load reads a TOML configuration file, fills defaults and validates.
// Duration options accept Go duration strings; idle-time also accepts a
// bare integer, read as minutes, the other durations as seconds.
func Load(path string) (Config, error) {
	var c Config
	data, err := os.ReadFile(path)
	if err != nil {
		return c, xerrors.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return c, xerrors.Errorf("parse config: %w", err)
	}

	c = Config{
		Classname:    fc.Classname,
		Subprotocol:  fc.Subprotocol,
		Subname:      fc.Subname,
		User:         fc.User,
		Password:     fc.Password,
		InitPoolSize: fc.InitPoolSize,
		MaxPoolSize:  fc.MaxPoolSize,
		Partitions:   fc.Partitions,
		TestOnBorrow: fc.TestOnBorrow,
	}
	if c.IdleTime, err = tomlDuration("idle-time", fc.IdleTime, time.Minute); err != nil {
		return c, err
	}
	if c.BorrowTimeout, err = tomlDuration("borrow-timeout", fc.BorrowTimeout, time.Second); err != nil {
		return c, err
	}
	if c.ReclaimInterval, err = tomlDuration("reclaim-interval", fc.ReclaimInterval, time.Second); err != nil {
		return c, err
	}

	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// tomlDuration interprets a decoded TOML value as a duration: a string is
// parsed with time.ParseDuration, an integer is scaled by unit.
func tomlDuration(key string, v any, unit time.Duration) (time.Duration, error) {
	switch d := v.(type) {
	case nil:
		return 0, nil
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return 0, xerrors.Errorf("%s: %w", key, err)
		}
		return parsed, nil
	case int64:
		return time.Duration(d) * unit, nil
	default:
		return 0, xerrors.Errorf("%s: not a duration string or integer: %v", key, v)
	}
}

// FromEnv builds a Config from DBCP_* environment variables, fills defaults
// and validates. Durations accept Go duration strings; DBCP_IDLE_TIME also
// accepts a bare integer, read as minutes.
func FromEnv() (Config, error) {
	c := Config{
		Classname:   os.Getenv("DBCP_CLASSNAME"),
		Subprotocol: os.Getenv("DBCP_SUBPROTOCOL"),
		Subname:     os.Getenv("DBCP_SUBNAME"),
		User:        os.Getenv("DBCP_USER"),
		Password:    os.Getenv("DBCP_PASSWORD"),
	}

	var err error
	if c.InitPoolSize, err = envInt("DBCP_INIT_POOL_SIZE"); err != nil {
		return c, err
	}
	if c.MaxPoolSize, err = envInt("DBCP_MAX_POOL_SIZE"); err != nil {
		return c, err
	}
	if c.Partitions, err = envInt("DBCP_PARTITIONS"); err != nil {
		return c, err
	}
	if c.IdleTime, err = envDuration("DBCP_IDLE_TIME", time.Minute); err != nil {
		return c, err
	}
	if c.BorrowTimeout, err = envDuration("DBCP_BORROW_TIMEOUT", time.Second); err != nil {
		return c, err
	}
	if c.ReclaimInterval, err = envDuration("DBCP_RECLAIM_INTERVAL", time.Second); err != nil {
		return c, err
	}
	c.TestOnBorrow = os.Getenv("DBCP_TEST_ON_BORROW") == "1"

	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func envInt(key string) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, xerrors.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// envDuration parses a Go duration string, falling back to a bare integer
// scaled by unit.
func envDuration(key string, unit time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, xerrors.Errorf("%s: not a duration or integer: %q", key, s)
	}
	return time.Duration(n) * unit, nil
}
