// Package model defines the language-model invoker boundary and its
// Ollama implementation. The invoker takes a fully composed prompt and
// returns generated text; no streaming, no structured output.
package model

import (
	"context"
	"errors"
)

// Invoker sends a composed prompt to a model backend.
// Implementations must be safe for concurrent use.
type Invoker interface {
	// Complete sends the prompt and returns the generated text.
	Complete(ctx context.Context, prompt string) (string, error)

	// ModelName returns the identifier of the underlying model.
	ModelName() string
}

// Sentinel errors for invoker operations.
var (
	// ErrBackendDown indicates the backend could not be reached or
	// returned a server-side failure.
	ErrBackendDown = errors.New("model backend unavailable")

	// ErrEmptyResponse indicates the backend answered without content.
	ErrEmptyResponse = errors.New("model returned empty response")
)
