package pool

import (
	"errors"
)

var (
	// ErrInvalidConfig is returned when the pool configuration is rejected at Open.
	ErrInvalidConfig = errors.New("invalid pool configuration")
	// ErrInitialization is returned when the connection factory fails during warm-up.
	ErrInitialization = errors.New("pool initialization failed")
	// ErrPoolClosed is returned when an operation is attempted after Close.
	ErrPoolClosed = errors.New("pool is closed")
	// ErrPoolExhausted is returned when a partition has no idle connection and is at capacity.
	ErrPoolExhausted = errors.New("pool exhausted")
	// ErrBorrowTimeout is returned when a blocking borrow gives up waiting for a release.
	ErrBorrowTimeout = errors.New("borrow timed out")
	// ErrConnectionCreate is returned when the factory fails during on-demand growth.
	ErrConnectionCreate = errors.New("connection create failed")
	// ErrHandleClosed is returned when a handle is used after Release.
	ErrHandleClosed = errors.New("handle is closed")
)
