package memory

import "errors"

// Sentinel errors for memory operations.
var (
	// ErrUnavailable indicates the underlying store cannot be reached or opened.
	ErrUnavailable = errors.New("memory store unavailable")

	// ErrInvalidMode indicates a mode outside the closed set.
	ErrInvalidMode = errors.New("invalid session mode")
)
