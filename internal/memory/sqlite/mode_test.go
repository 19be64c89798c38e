package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/charank/mikasa/internal/memory"
)

func TestModeDefaultIsAssistant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := s.Modes()

	mode, err := m.Get(ctx, "fresh-session")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if mode != memory.ModeAssistant {
		t.Errorf("mode = %q, want assistant", mode)
	}

	// A second get without a set returns the same default.
	mode, err = m.Get(ctx, "fresh-session")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if mode != memory.ModeAssistant {
		t.Errorf("second get = %q, want assistant", mode)
	}
}

func TestModeSetAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := s.Modes()

	if err := m.Set(ctx, "s1", memory.ModeMikasa); err != nil {
		t.Fatalf("set: %v", err)
	}

	mode, err := m.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if mode != memory.ModeMikasa {
		t.Errorf("mode = %q, want mikasa", mode)
	}

	// Toggle back.
	if err := m.Set(ctx, "s1", memory.ModeAssistant); err != nil {
		t.Fatalf("set back: %v", err)
	}
	mode, _ = m.Get(ctx, "s1")
	if mode != memory.ModeAssistant {
		t.Errorf("mode = %q, want assistant after toggle", mode)
	}
}

func TestModeSetRejectsInvalid(t *testing.T) {
	s := newTestStore(t)

	err := s.Modes().Set(context.Background(), "s1", memory.Mode("pirate"))
	if !errors.Is(err, memory.ErrInvalidMode) {
		t.Fatalf("err = %v, want ErrInvalidMode", err)
	}
}

func TestModeSessionIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := s.Modes()

	if err := m.Set(ctx, "s1", memory.ModeMikasa); err != nil {
		t.Fatalf("set: %v", err)
	}

	mode, err := m.Get(ctx, "s2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if mode != memory.ModeAssistant {
		t.Errorf("s2 mode = %q, want assistant default", mode)
	}
}

func TestModeConcurrentFirstAccess(t *testing.T) {
	s := newTestStore(t)
	m := s.Modes()

	var wg sync.WaitGroup
	results := make([]memory.Mode, 8)
	errs := make([]error, 8)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.Get(context.Background(), "race-session")
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		if errs[i] != nil {
			t.Fatalf("get %d: %v", i, errs[i])
		}
		if results[i] != memory.ModeAssistant {
			t.Errorf("get %d = %q, want assistant", i, results[i])
		}
	}
}
