package dbcp

import (
	"github.com/shrek82/dbcp/config"
	"github.com/shrek82/dbcp/core"
	"github.com/shrek82/dbcp/pool"
)

// Re-export core types and functions
type DB = core.DB
type Tx = core.Tx
type Rows = core.Rows
type Row = core.Row
type Config = config.Config

var (
	Open       = core.Open
	LoadConfig = config.Load
	FromEnv    = config.FromEnv
)

// Re-export pool types and errors
type Pool = pool.Pool
type PooledConn = pool.PooledConn
type StatsSnapshot = pool.StatsSnapshot

var (
	ErrInvalidConfig    = pool.ErrInvalidConfig
	ErrInitialization   = pool.ErrInitialization
	ErrPoolClosed       = pool.ErrPoolClosed
	ErrPoolExhausted    = pool.ErrPoolExhausted
	ErrBorrowTimeout    = pool.ErrBorrowTimeout
	ErrConnectionCreate = pool.ErrConnectionCreate
	ErrHandleClosed     = pool.ErrHandleClosed
	ErrRecordNotFound   = core.ErrRecordNotFound
)
