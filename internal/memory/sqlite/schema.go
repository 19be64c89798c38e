package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// memorySchema creates the durable fragment tables. All DDL uses
// IF NOT EXISTS for idempotent re-application.
var memorySchema = []string{
	`CREATE TABLE IF NOT EXISTS fragments (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		owner      TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	)`,

	`CREATE INDEX IF NOT EXISTS idx_fragments_owner ON fragments(owner, seq)`,
}

// sessionSchema creates the transcript and mode tables. The transcript
// seq column is the ordering authority: created_at has second precision
// and same-second writes must still read back in insertion order.
var sessionSchema = []string{
	`CREATE TABLE IF NOT EXISTS transcript (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		speaker    TEXT NOT NULL DEFAULT '',
		line       TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	)`,

	`CREATE INDEX IF NOT EXISTS idx_transcript_session ON transcript(session_id, seq)`,

	`CREATE TABLE IF NOT EXISTS session_mode (
		session_id TEXT PRIMARY KEY,
		mode       TEXT NOT NULL DEFAULT 'assistant'
	)`,
}

// migrate creates or updates a database schema to the latest version.
func migrate(db *sql.DB, statements []string) error {
	ctx := context.TODO()

	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("sqlite: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	if current >= schemaVersion {
		return nil
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w\nstatement: %s", err, stmt)
		}
	}

	if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("sqlite: record schema version: %w", err)
	}

	return nil
}
