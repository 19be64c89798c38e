// Package sqlite implements the memory stores on modernc.org/sqlite
// (pure Go, no CGO) with WAL mode. Durable fragments live in one database
// file, session state (transcript and mode register) in another, mirroring
// their different lifetimes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charank/mikasa/internal/memory"

	_ "modernc.org/sqlite" // SQLite driver registration
)

// Compile-time interface guards.
var (
	_ memory.FragmentStore   = (*fragmentStore)(nil)
	_ memory.TranscriptStore = (*transcriptStore)(nil)
	_ memory.ModeStore       = (*modeStore)(nil)
)

const (
	defaultBusyTimeout = 5000

	// timeLayout is the second-precision sortable timestamp format used
	// in both databases. SQLite's strftime('now') emits UTC.
	timeLayout = "2006-01-02T15:04:05Z"
)

// Config holds the store settings resolved from application config.
type Config struct {
	// MemoryPath is the durable fragment database file.
	MemoryPath string

	// SessionsPath is the transcript/mode database file.
	SessionsPath string

	// WAL enables WAL journal mode.
	WAL bool

	// BusyTimeout is the milliseconds to wait on a busy lock.
	BusyTimeout int
}

// Store owns both database handles and hands out the typed store views.
type Store struct {
	memDB  *sql.DB
	sessDB *sql.DB
	logger *slog.Logger

	fragments  *fragmentStore
	transcript *transcriptStore
	modes      *modeStore

	cfg Config
}

// Open opens (creating if needed) both databases, applies PRAGMAs, and
// migrates schemas. On failure nothing is left open.
func Open(cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = defaultBusyTimeout
	}

	memDB, err := openDB(cfg.MemoryPath, cfg, memorySchema)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", memory.ErrUnavailable, err)
	}

	sessDB, err := openDB(cfg.SessionsPath, cfg, sessionSchema)
	if err != nil {
		_ = memDB.Close()
		return nil, fmt.Errorf("%w: %w", memory.ErrUnavailable, err)
	}

	s := &Store{
		memDB:      memDB,
		sessDB:     sessDB,
		logger:     logger,
		fragments:  &fragmentStore{db: memDB},
		transcript: &transcriptStore{db: sessDB},
		modes:      &modeStore{db: sessDB},
		cfg:        cfg,
	}

	logger.Info("sqlite memory stores opened",
		"memory_path", cfg.MemoryPath,
		"sessions_path", cfg.SessionsPath,
		"wal", cfg.WAL,
	)

	return s, nil
}

func openDB(path string, cfg Config, schema []string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("sqlite: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}

	// SQLite handles one writer at a time; limit pool to 1 connection
	// so PRAGMAs apply consistently.
	db.SetMaxOpenConns(1)

	ctx := context.TODO()

	if cfg.WAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: enable WAL on %s: %w", path, err)
		}
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", cfg.BusyTimeout)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: set busy_timeout on %s: %w", path, err)
	}

	if err := migrate(db, schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Fragments returns the durable fragment store.
func (s *Store) Fragments() memory.FragmentStore { return s.fragments }

// Transcript returns the session transcript store.
func (s *Store) Transcript() memory.TranscriptStore { return s.transcript }

// Modes returns the session mode register.
func (s *Store) Modes() memory.ModeStore { return s.modes }

// Close closes both database handles.
func (s *Store) Close() error {
	var first error
	if err := s.memDB.Close(); err != nil {
		first = err
	}
	if err := s.sessDB.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

// DBStat describes one database for the diagnostic status endpoint.
type DBStat struct {
	Path       string `json:"path"`
	Accessible bool   `json:"accessible"`
	Rows       int    `json:"rows"`
	Error      string `json:"error,omitempty"`
}

// Stats probes both databases and reports reachability plus row counts.
// Probe failures are reported in the result, never returned as errors.
func (s *Store) Stats(ctx context.Context) (memStat, sessStat DBStat) {
	memStat = probe(ctx, s.memDB, s.cfg.MemoryPath, "SELECT COUNT(*) FROM fragments")
	sessStat = probe(ctx, s.sessDB, s.cfg.SessionsPath, "SELECT COUNT(*) FROM transcript")
	return memStat, sessStat
}

func probe(ctx context.Context, db *sql.DB, path, countQuery string) DBStat {
	stat := DBStat{Path: path}

	if err := db.PingContext(ctx); err != nil {
		stat.Error = err.Error()
		return stat
	}

	if err := db.QueryRowContext(ctx, countQuery).Scan(&stat.Rows); err != nil {
		stat.Error = err.Error()
		return stat
	}

	stat.Accessible = true
	return stat
}
