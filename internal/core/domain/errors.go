package domain

import "errors"

// Domain errors represent store-level failures that callers may act on.
// Anything else returned by a store is an infrastructure error.
var (
	// ErrNotFound indicates a requested record does not exist.
	// Only lookups by id return it; field queries return empty results.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or unsupported input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidIdentifier indicates a field or table name that cannot be
	// safely placed in a query.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrIntegrityViolation indicates the storage engine rejected a write
	// because the stored text is not valid JSON.
	ErrIntegrityViolation = errors.New("integrity violation: invalid JSON rejected")

	// ErrConfigKeyConflict indicates a config key that would shadow, or be
	// shadowed by, another key once keys are nested into tables.
	ErrConfigKeyConflict = errors.New("config key conflict")

	// ErrStoreClosed indicates an operation on a closed store.
	ErrStoreClosed = errors.New("store closed")
)
