package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charank/mikasa/internal/memory"
)

// fragmentStore implements memory.FragmentStore backed by the memory database.
type fragmentStore struct {
	db *sql.DB
}

// Store appends a fragment. Insertion order is preserved by the
// AUTOINCREMENT seq column.
func (s *fragmentStore) Store(ctx context.Context, owner, text string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO fragments (owner, content) VALUES (?, ?)",
		owner, text,
	)
	if err != nil {
		return fmt.Errorf("sqlite: store fragment: %w", err)
	}
	return nil
}

// Retrieve returns all fragments for the owner in insertion order.
func (s *fragmentStore) Retrieve(ctx context.Context, owner string) ([]memory.Fragment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, owner, content, created_at
		FROM fragments
		WHERE owner = ?
		ORDER BY seq ASC`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: retrieve fragments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var fragments []memory.Fragment
	for rows.Next() {
		var (
			frag      memory.Fragment
			createdAt string
		)
		if err := rows.Scan(&frag.Seq, &frag.Owner, &frag.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan fragment: %w", err)
		}
		if t, err := time.Parse(timeLayout, createdAt); err == nil {
			frag.CreatedAt = t
		}
		fragments = append(fragments, frag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: retrieve fragment rows: %w", err)
	}

	return fragments, nil
}

// Remove deletes fragments whose text contains keyword. instr() is used
// instead of LIKE because SQLite LIKE case-folds ASCII and the match
// contract is case-sensitive.
func (s *fragmentStore) Remove(ctx context.Context, owner, keyword string) (int, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM fragments WHERE owner = ? AND instr(content, ?) > 0",
		owner, keyword,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: remove fragments: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: rows affected: %w", err)
	}
	return int(n), nil
}

// Update replaces the entire text of every fragment containing oldSub.
func (s *fragmentStore) Update(ctx context.Context, owner, oldSub, newText string) (int, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE fragments SET content = ? WHERE owner = ? AND instr(content, ?) > 0",
		newText, owner, oldSub,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: update fragments: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: rows affected: %w", err)
	}
	return int(n), nil
}
