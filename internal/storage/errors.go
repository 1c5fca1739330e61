package storage

import "errors"

// Storage errors shared by all backends.
var (
	// ErrNotFound is returned when the requested ledger key or snapshot
	// row has never been created.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
