// Package chat orchestrates a conversation turn: it records the inbound
// message, interprets in-band control commands, and otherwise composes a
// prompt from both memory tiers and invokes the model backend.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charank/mikasa/internal/memory"
	"github.com/charank/mikasa/internal/model"
)

// Config holds pipeline settings resolved from application config.
type Config struct {
	// Owner is the durable-memory owner identity.
	Owner string

	// HistoryLimit is the transcript window fed into prompts.
	HistoryLimit int

	// DeleteRecentBatch is how many entries "del prev" removes.
	DeleteRecentBatch int
}

// Result is the outcome of one conversation turn.
type Result struct {
	// Reply is the text returned to the caller. Deliberately empty for
	// the silent delete-recent command.
	Reply string

	// Speaker is the transcript label the reply was recorded under.
	Speaker string

	// Command names the interpreted control command, or "" when the
	// turn went through the model.
	Command string

	// ModelInvoked reports whether the model backend was called.
	ModelInvoked bool

	// Degraded reports that the reply is an error notice rather than
	// generated or command output.
	Degraded bool
}

// Engine runs conversation turns. All state lives in the injected
// stores; the engine itself is stateless and safe for concurrent use.
type Engine struct {
	fragments  memory.FragmentStore
	transcript memory.TranscriptStore
	modes      memory.ModeStore
	invoker    model.Invoker
	logger     *slog.Logger
	cfg        Config

	// now is injectable for time/date command tests.
	now func() time.Time
}

// New builds an Engine. All collaborators are required except logger.
func New(fragments memory.FragmentStore, transcript memory.TranscriptStore, modes memory.ModeStore, invoker model.Invoker, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 20
	}
	if cfg.DeleteRecentBatch <= 0 {
		cfg.DeleteRecentBatch = 3
	}
	if cfg.Owner == "" {
		cfg.Owner = "Player"
	}
	return &Engine{
		fragments:  fragments,
		transcript: transcript,
		modes:      modes,
		invoker:    invoker,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Turn processes one inbound message for a session and returns the reply.
// A turn never fails outright: storage and model failures degrade into
// visible reply text.
func (e *Engine) Turn(ctx context.Context, sessionID, message string) Result {
	message = strings.TrimSpace(message)
	if message == "" {
		return Result{Reply: "Please enter a message."}
	}

	if err := e.transcript.Append(ctx, sessionID, speakerUser, message); err != nil {
		e.logger.Error("append user message failed", "session", sessionID, "error", err)
	}

	mode, err := e.modes.Get(ctx, sessionID)
	if err != nil {
		// Degrade to the default voice rather than failing the turn.
		e.logger.Error("get session mode failed", "session", sessionID, "error", err)
		mode = memory.ModeAssistant
	}

	if res, ok := e.interpret(ctx, sessionID, message, mode); ok {
		return res
	}

	return e.modelTurn(ctx, sessionID, message, mode)
}

// modelTurn is the normal flow: compose a prompt from both memory tiers
// and invoke the backend.
func (e *Engine) modelTurn(ctx context.Context, sessionID, message string, mode memory.Mode) Result {
	memBlob := e.memoryBlob(ctx)
	historyBlob := e.historyBlob(ctx, sessionID)

	var dt *datetimeInfo
	if wantsDatetimeContext(message) {
		info := e.datetime()
		dt = &info
	}

	prompt := composePrompt(mode, message, memBlob, historyBlob, dt)

	speaker := mode.Speaker()
	reply, err := e.invoker.Complete(ctx, prompt)
	degraded := false
	if err != nil {
		e.logger.Error("model invocation failed", "session", sessionID, "model", e.invoker.ModelName(), "error", err)
		reply = fmt.Sprintf("Something went wrong generating a reply: %v", err)
		degraded = true
	}

	if err := e.transcript.Append(ctx, sessionID, speaker, reply); err != nil {
		e.logger.Error("append reply failed", "session", sessionID, "error", err)
	}

	return Result{Reply: reply, Speaker: speaker, ModelInvoked: true, Degraded: degraded}
}

// memoryBlob renders the durable memory tier for prompt use. The
// human-facing sentinels live here at the boundary; the store itself
// distinguishes empty from failed.
func (e *Engine) memoryBlob(ctx context.Context) string {
	frags, err := e.fragments.Retrieve(ctx, e.cfg.Owner)
	if err != nil {
		e.logger.Error("retrieve memory failed", "owner", e.cfg.Owner, "error", err)
		return "Error retrieving memory."
	}
	if len(frags) == 0 {
		return "No memory found."
	}

	texts := make([]string, len(frags))
	for i, f := range frags {
		texts[i] = f.Text
	}
	return strings.Join(texts, "\n")
}

// historyBlob renders the recent transcript window, speaker-tagged.
// Includes the user message appended at the start of this turn.
func (e *Engine) historyBlob(ctx context.Context, sessionID string) string {
	entries, err := e.transcript.Recent(ctx, sessionID, e.cfg.HistoryLimit)
	if err != nil {
		e.logger.Error("retrieve transcript failed", "session", sessionID, "error", err)
		return ""
	}

	lines := make([]string, len(entries))
	for i, entry := range entries {
		if entry.Speaker != "" {
			lines[i] = entry.Speaker + ": " + entry.Line
		} else {
			lines[i] = entry.Line
		}
	}
	return strings.Join(lines, "\n")
}
