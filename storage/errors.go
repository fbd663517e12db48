package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when no answer is cached for a key.
	ErrNotFound = errors.New("answer not found")

	// ErrExists is returned by Put when the key already has an answer.
	ErrExists = errors.New("answer already cached")

	// ErrInvalidKey is returned for keys that cannot map to a file.
	ErrInvalidKey = errors.New("invalid cache key")
)
