// Package modeltest provides test helpers for the model package.
package modeltest

import (
	"context"
	"sync"

	"github.com/charank/mikasa/internal/model"
)

// MockInvoker is a configurable test double for model.Invoker.
// Set CompleteFunc to control behavior; an unset func panics on call.
// Safe for concurrent use.
type MockInvoker struct {
	CompleteFunc  func(ctx context.Context, prompt string) (string, error)
	ModelNameFunc func() string

	mu            sync.Mutex
	completeCalls int
	prompts       []string
}

// Interface guard.
var _ model.Invoker = (*MockInvoker)(nil)

// Complete delegates to CompleteFunc and records the prompt.
func (m *MockInvoker) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.completeCalls++
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	return m.CompleteFunc(ctx, prompt)
}

// ModelName delegates to ModelNameFunc, defaulting to "mock".
func (m *MockInvoker) ModelName() string {
	if m.ModelNameFunc != nil {
		return m.ModelNameFunc()
	}
	return "mock"
}

// CompleteCalls returns how many times Complete was invoked.
func (m *MockInvoker) CompleteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completeCalls
}

// Prompts returns a copy of all prompts seen so far.
func (m *MockInvoker) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
