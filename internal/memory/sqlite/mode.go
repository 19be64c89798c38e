package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charank/mikasa/internal/memory"
)

// modeStore implements memory.ModeStore backed by the sessions database.
type modeStore struct {
	db *sql.DB
}

// Get returns the session's mode, creating the assistant default on first
// access. INSERT OR IGNORE makes the read-creates-default atomic: two
// concurrent first reads race to a single row, never duplicates.
func (s *modeStore) Get(ctx context.Context, sessionID string) (memory.Mode, error) {
	if _, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO session_mode (session_id, mode) VALUES (?, ?)",
		sessionID, string(memory.ModeAssistant),
	); err != nil {
		return "", fmt.Errorf("sqlite: init session mode: %w", err)
	}

	var mode string
	if err := s.db.QueryRowContext(ctx,
		"SELECT mode FROM session_mode WHERE session_id = ?", sessionID,
	).Scan(&mode); err != nil {
		return "", fmt.Errorf("sqlite: get session mode: %w", err)
	}

	return memory.Mode(mode), nil
}

// Set validates and upserts the session's mode.
func (s *modeStore) Set(ctx context.Context, sessionID string, mode memory.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", memory.ErrInvalidMode, mode)
	}

	if _, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO session_mode (session_id, mode) VALUES (?, ?)",
		sessionID, string(mode),
	); err != nil {
		return fmt.Errorf("sqlite: set session mode: %w", err)
	}

	return nil
}
