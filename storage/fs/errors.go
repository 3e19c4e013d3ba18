package fs

import "errors"

var (
	// ErrInvalidPattern is returned when a chunk file pattern cannot be parsed.
	ErrInvalidPattern = errors.New("invalid chunk file pattern")
)
