package core

import (
	"errors"
)

var (
	// ErrRecordNotFound is returned when a query expects at least one row but none were found.
	ErrRecordNotFound = errors.New("record not found")
	// ErrRowsClosed is returned when a closed Rows is iterated or scanned.
	ErrRowsClosed = errors.New("rows are closed")
)
