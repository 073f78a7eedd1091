package repository

import "errors"

var (
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicate         = errors.New("duplicate resource")
	ErrInsufficientStock = errors.New("not enough quantity available")
	// ErrStaleState is returned when a compare-and-swap write finds the row
	// changed underneath it.
	ErrStaleState = errors.New("resource state changed concurrently")
	// ErrRetryable marks deadlocks and lock timeouts; the whole transaction may
	// be run again.
	ErrRetryable = errors.New("transaction aborted, retry")
)
