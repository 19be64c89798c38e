package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/charank/mikasa/internal/memory"
)

// transcriptStore implements memory.TranscriptStore backed by the
// sessions database.
type transcriptStore struct {
	db *sql.DB
}

// Append writes one entry with the current timestamp.
func (s *transcriptStore) Append(ctx context.Context, sessionID, speaker, line string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO transcript (session_id, speaker, line) VALUES (?, ?, ?)",
		sessionID, speaker, line,
	)
	if err != nil {
		return fmt.Errorf("sqlite: append transcript: %w", err)
	}
	return nil
}

// Recent returns up to limit most-recent entries for the session,
// oldest first. Ordering is by seq so same-second writes keep their
// insertion order.
func (s *transcriptStore) Recent(ctx context.Context, sessionID string, limit int) ([]memory.Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, session_id, speaker, line, created_at
		FROM transcript
		WHERE session_id = ?
		ORDER BY seq DESC
		LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: recent transcript: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []memory.Entry
	for rows.Next() {
		var (
			e         memory.Entry
			createdAt string
		)
		if err := rows.Scan(&e.Seq, &e.SessionID, &e.Speaker, &e.Line, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan transcript entry: %w", err)
		}
		if t, err := time.Parse(timeLayout, createdAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: recent transcript rows: %w", err)
	}

	// Reverse to chronological order.
	slices.Reverse(entries)
	return entries, nil
}

// Clear deletes all entries for one session, or everything when
// sessionID is empty.
func (s *transcriptStore) Clear(ctx context.Context, sessionID string) error {
	var err error
	if sessionID == "" {
		_, err = s.db.ExecContext(ctx, "DELETE FROM transcript")
	} else {
		_, err = s.db.ExecContext(ctx, "DELETE FROM transcript WHERE session_id = ?", sessionID)
	}
	if err != nil {
		return fmt.Errorf("sqlite: clear transcript: %w", err)
	}
	return nil
}

// DeleteRecent deletes the n highest-seq entries for the session — the
// same tie-break rule reads use, descending.
func (s *transcriptStore) DeleteRecent(ctx context.Context, sessionID string, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM transcript
		WHERE seq IN (
			SELECT seq FROM transcript
			WHERE session_id = ?
			ORDER BY seq DESC
			LIMIT ?
		)`,
		sessionID, n,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete recent transcript: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: rows affected: %w", err)
	}
	return int(deleted), nil
}

// PruneBefore deletes entries older than cutoff across all sessions.
func (s *transcriptStore) PruneBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM transcript WHERE created_at < ?",
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: prune transcript: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: rows affected: %w", err)
	}
	return int(deleted), nil
}
