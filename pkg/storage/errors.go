package storage

import "errors"

// Predefined errors for the storage package.
var (
	// ErrNotFound indicates the requested key does not exist.
	ErrNotFound = errors.New("storage: key not found")

	// ErrNilClient indicates a storage adapter was constructed without a
	// backing client.
	ErrNilClient = errors.New("storage: backing client cannot be nil")
)
