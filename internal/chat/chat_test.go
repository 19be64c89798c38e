package chat

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charank/mikasa/internal/memory"
	"github.com/charank/mikasa/internal/memory/sqlite"
	"github.com/charank/mikasa/internal/model"
	"github.com/charank/mikasa/internal/model/modeltest"
)

// testClock is a fixed instant so time/date replies are deterministic:
// Tuesday, March 18, 2025 at 2:45 PM.
var testClock = time.Date(2025, time.March, 18, 14, 45, 0, 0, time.UTC)

func newTestEngine(t *testing.T, invoker model.Invoker) (*Engine, *sqlite.Store) {
	t.Helper()

	dir := t.TempDir()
	store, err := sqlite.Open(sqlite.Config{
		MemoryPath:   filepath.Join(dir, "memory.db"),
		SessionsPath: filepath.Join(dir, "sessions.db"),
		WAL:          true,
	}, slog.Default())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	e := New(store.Fragments(), store.Transcript(), store.Modes(), invoker, Config{
		Owner:             "Player",
		HistoryLimit:      20,
		DeleteRecentBatch: 3,
	}, slog.Default())
	e.now = func() time.Time { return testClock }

	return e, store
}

func echoInvoker(reply string) *modeltest.MockInvoker {
	return &modeltest.MockInvoker{
		CompleteFunc: func(context.Context, string) (string, error) {
			return reply, nil
		},
	}
}

func TestTurnEmptyMessage(t *testing.T) {
	e, store := newTestEngine(t, echoInvoker("unused"))

	res := e.Turn(context.Background(), "s1", "   ")
	if res.Reply != "Please enter a message." {
		t.Errorf("reply = %q", res.Reply)
	}

	// Nothing recorded for a blank turn.
	entries, err := store.Transcript().Recent(context.Background(), "s1", 100)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("transcript has %d entries, want 0", len(entries))
	}
}

func TestModelTurn(t *testing.T) {
	mock := echoInvoker("the capital of France is Paris")
	e, store := newTestEngine(t, mock)
	ctx := context.Background()

	if err := store.Fragments().Store(ctx, "Player", "lives in Berlin"); err != nil {
		t.Fatalf("seed fragment: %v", err)
	}

	res := e.Turn(ctx, "s1", "what is the capital of France?")

	if !res.ModelInvoked {
		t.Error("model should have been invoked")
	}
	if res.Reply != "the capital of France is Paris" {
		t.Errorf("reply = %q", res.Reply)
	}
	if res.Speaker != "Assistant" {
		t.Errorf("speaker = %q, want Assistant (default mode)", res.Speaker)
	}

	prompts := mock.Prompts()
	if len(prompts) != 1 {
		t.Fatalf("got %d prompts, want 1", len(prompts))
	}
	p := prompts[0]
	if !strings.Contains(p, "lives in Berlin") {
		t.Error("prompt should contain durable memory")
	}
	if !strings.Contains(p, "User: what is the capital of France?") {
		t.Error("prompt should contain the speaker-tagged transcript line")
	}
	if strings.Contains(p, "# CURRENT TIME") {
		t.Error("prompt should omit the date/time block for a non-temporal message")
	}

	// Both the user line and the reply are on the transcript.
	entries, err := store.Transcript().Recent(ctx, "s1", 100)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("transcript has %d entries, want 2", len(entries))
	}
	if entries[0].Speaker != "User" || entries[1].Speaker != "Assistant" {
		t.Errorf("speakers = %q, %q", entries[0].Speaker, entries[1].Speaker)
	}
	if entries[1].Line != "the capital of France is Paris" {
		t.Errorf("recorded reply = %q", entries[1].Line)
	}
}

func TestModelTurnNoMemorySentinel(t *testing.T) {
	mock := echoInvoker("hello")
	e, _ := newTestEngine(t, mock)

	e.Turn(context.Background(), "s1", "hello there")

	prompts := mock.Prompts()
	if len(prompts) != 1 {
		t.Fatalf("got %d prompts, want 1", len(prompts))
	}
	if !strings.Contains(prompts[0], "No memory found.") {
		t.Error("prompt should carry the no-memory sentinel when the store is empty")
	}
}

func TestModelTurnIncludesDatetimeBlock(t *testing.T) {
	mock := echoInvoker("sounds like a plan")
	e, _ := newTestEngine(t, mock)

	// Mentions "today" without being a direct time question, so it goes
	// to the model with the date/time block included.
	e.Turn(context.Background(), "s1", "help me plan my workout for today please")

	prompts := mock.Prompts()
	if len(prompts) != 1 {
		t.Fatalf("got %d prompts, want 1 (message is not a direct time question)", len(prompts))
	}
	if !strings.Contains(prompts[0], "# CURRENT TIME") {
		t.Error("prompt should include the date/time block")
	}
	if !strings.Contains(prompts[0], "Tuesday, March 18, 2025 at 2:45 PM") {
		t.Errorf("prompt should carry the formatted clock, got:\n%s", prompts[0])
	}
}

func TestModelFailureDegradesIntoReply(t *testing.T) {
	mock := &modeltest.MockInvoker{
		CompleteFunc: func(context.Context, string) (string, error) {
			return "", errors.New("backend exploded")
		},
	}
	e, store := newTestEngine(t, mock)

	res := e.Turn(context.Background(), "s1", "hello?")

	if !res.Degraded {
		t.Error("result should be degraded")
	}
	if res.Reply == "" {
		t.Error("degraded turn must still produce visible reply text")
	}
	if !strings.Contains(res.Reply, "backend exploded") {
		t.Errorf("reply = %q, should describe the failure", res.Reply)
	}

	// The degraded reply is recorded like any other.
	entries, _ := store.Transcript().Recent(context.Background(), "s1", 100)
	if len(entries) != 2 {
		t.Fatalf("transcript has %d entries, want 2", len(entries))
	}
}

func TestMikasaModeVoiceSelection(t *testing.T) {
	mock := echoInvoker("of course~")
	e, store := newTestEngine(t, mock)
	ctx := context.Background()

	if err := store.Modes().Set(ctx, "s1", memory.ModeMikasa); err != nil {
		t.Fatalf("set mode: %v", err)
	}

	res := e.Turn(ctx, "s1", "tell me something nice")

	if res.Speaker != "Mikasa" {
		t.Errorf("speaker = %q, want Mikasa", res.Speaker)
	}
	prompts := mock.Prompts()
	if len(prompts) != 1 {
		t.Fatalf("got %d prompts, want 1", len(prompts))
	}
	if !strings.Contains(prompts[0], "warm and attentive companion") {
		t.Error("mikasa mode should use the persona voice template")
	}
}
