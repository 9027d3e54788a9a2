package postgres

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// ErrDuplicateTransaction means a message with the same
	// transaction hash was already persisted. Replays must treat this
	// as terminal, not retryable.
	ErrDuplicateTransaction = errors.New("duplicate transaction hash")
)
