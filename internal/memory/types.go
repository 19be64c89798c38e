// Package memory defines the two memory tiers of the system: durable
// free-text fragments keyed by an owner identity, and per-session
// conversation state (timestamped transcript plus a behavioral mode).
// Implementations live in subpackages (e.g. memory/sqlite).
package memory

import (
	"context"
	"time"
)

// Fragment is a persisted free-text note tied to an owner identity.
// Fragments survive restarts and are retrieved in insertion order.
type Fragment struct {
	Seq       int64
	Owner     string
	Text      string
	CreatedAt time.Time
}

// Entry is one transcript line for a session. Entries are never mutated;
// they are only appended and deleted. Seq is monotonic per database and
// is the ordering authority — CreatedAt has second precision and ties
// within the same second are resolved by Seq.
type Entry struct {
	Seq       int64
	SessionID string
	Speaker   string
	Line      string
	CreatedAt time.Time
}

// Mode is a session's behavioral switch. It affects prompt template and
// response phrasing only; there are no automatic transitions.
type Mode string

// The closed set of session modes.
const (
	ModeAssistant Mode = "assistant"
	ModeMikasa    Mode = "mikasa"
)

// Valid reports whether m is one of the closed mode set.
func (m Mode) Valid() bool {
	return m == ModeAssistant || m == ModeMikasa
}

// Speaker returns the transcript label for replies produced in this mode.
func (m Mode) Speaker() string {
	if m == ModeMikasa {
		return "Mikasa"
	}
	return "Assistant"
}

// FragmentStore manages durable memory fragments.
// Implementations must be safe for concurrent use; each call is one
// atomic statement against the underlying store.
type FragmentStore interface {
	// Store appends a fragment for the owner.
	Store(ctx context.Context, owner, text string) error

	// Retrieve returns all fragments for the owner in insertion order.
	// An empty result is not an error.
	Retrieve(ctx context.Context, owner string) ([]Fragment, error)

	// Remove deletes every fragment whose text contains keyword
	// (case-sensitive substring) and returns the number deleted.
	Remove(ctx context.Context, owner, keyword string) (int, error)

	// Update replaces the entire text of every fragment containing
	// oldSub with newText and returns the number changed.
	Update(ctx context.Context, owner, oldSub, newText string) (int, error)
}

// TranscriptStore manages the per-session conversation log.
type TranscriptStore interface {
	// Append writes one entry with the current timestamp.
	Append(ctx context.Context, sessionID, speaker, line string) error

	// Recent returns up to limit most-recent entries for the session,
	// oldest first. An empty result is not an error.
	Recent(ctx context.Context, sessionID string, limit int) ([]Entry, error)

	// Clear deletes all entries for one session, or for every session
	// when sessionID is empty.
	Clear(ctx context.Context, sessionID string) error

	// DeleteRecent deletes the n most-recently-written entries for the
	// session and returns the number deleted. Other sessions are untouched.
	DeleteRecent(ctx context.Context, sessionID string, n int) (int, error)

	// PruneBefore deletes entries older than cutoff across all sessions
	// and returns the number deleted.
	PruneBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// ModeStore manages the per-session mode register.
type ModeStore interface {
	// Get returns the session's mode, creating the assistant default
	// atomically on first access. Concurrent first reads for the same
	// session must not produce duplicate rows.
	Get(ctx context.Context, sessionID string) (Mode, error)

	// Set validates and upserts the session's mode.
	Set(ctx context.Context, sessionID string, mode Mode) error
}
