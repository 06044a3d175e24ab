package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	// SQLite driver (pure Go, no cgo required).
	_ "modernc.org/sqlite"
)

// SQLiteStore persists session state in a SQLite database file.
//
// Unlike MemStore, state survives process restarts, which makes it the
// right choice for long revision sessions that may be resumed after a
// crash or deliberate stop. The zero-configuration, single-file nature
// of SQLite keeps local development simple.
//
// All state is serialized to JSON before storage, so the state type S
// must be JSON-serializable.
type SQLiteStore[S any] struct {
	db     *sql.DB
	path   string
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a SQLite-backed store at the given file path.
//
// The database file and schema are created if they don't exist. Use
// ":memory:" as the path for an in-memory database (useful for tests,
// though state is lost when the connection closes).
func NewSQLiteStore[S any](path string) (*SQLiteStore[S], error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite handles concurrent writes poorly; a single connection
	// avoids SQLITE_BUSY errors under the engine's sequential access
	// pattern.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	s := &SQLiteStore[S]{
		db:   db,
		path: path,
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// createTables sets up the schema if it doesn't already exist.
func (s *SQLiteStore[S]) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS session_steps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		node_id TEXT NOT NULL,
		state TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(run_id, step)
	);

	CREATE INDEX IF NOT EXISTS idx_session_steps_run_id ON session_steps(run_id);
	CREATE INDEX IF NOT EXISTS idx_session_steps_run_step ON session_steps(run_id, step);

	CREATE TABLE IF NOT EXISTS session_checkpoints (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		checkpoint_id TEXT NOT NULL UNIQUE,
		state TEXT NOT NULL,
		step INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_session_checkpoints_id ON session_checkpoints(checkpoint_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// SaveStep persists the state after a node ran.
//
// Saving the same (runID, step) again overwrites the previous record,
// which makes re-running a step after a resume safe.
func (s *SQLiteStore[S]) SaveStep(ctx context.Context, runID string, step int, nodeID string, state S) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	query := `
		INSERT INTO session_steps (run_id, step, node_id, state)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, step) DO UPDATE SET
			node_id = excluded.node_id,
			state = excluded.state
	`

	if _, err := s.db.ExecContext(ctx, query, runID, step, nodeID, string(stateJSON)); err != nil {
		return fmt.Errorf("failed to save step: %w", err)
	}

	return nil
}

// LoadLatest returns the most recent state for a run.
//
// Returns ErrNotFound if the run has no saved steps.
func (s *SQLiteStore[S]) LoadLatest(ctx context.Context, runID string) (S, int, error) {
	var zero S

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return zero, 0, fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	query := `
		SELECT step, state
		FROM session_steps
		WHERE run_id = ?
		ORDER BY step DESC
		LIMIT 1
	`

	var (
		step      int
		stateJSON string
	)

	err := s.db.QueryRowContext(ctx, query, runID).Scan(&step, &stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, 0, ErrNotFound
	}
	if err != nil {
		return zero, 0, fmt.Errorf("failed to load latest step: %w", err)
	}

	var state S
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return zero, 0, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return state, step, nil
}

// SaveCheckpoint stores a named snapshot of the state.
//
// Saving to an existing checkpoint ID overwrites it.
func (s *SQLiteStore[S]) SaveCheckpoint(ctx context.Context, cpID string, state S, step int) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	query := `
		INSERT INTO session_checkpoints (checkpoint_id, state, step)
		VALUES (?, ?, ?)
		ON CONFLICT(checkpoint_id) DO UPDATE SET
			state = excluded.state,
			step = excluded.step,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := s.db.ExecContext(ctx, query, cpID, string(stateJSON), step); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	return nil
}

// LoadCheckpoint retrieves a named snapshot.
//
// Returns ErrNotFound if no checkpoint exists with the given ID.
func (s *SQLiteStore[S]) LoadCheckpoint(ctx context.Context, cpID string) (S, int, error) {
	var zero S

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return zero, 0, fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	query := `
		SELECT state, step
		FROM session_checkpoints
		WHERE checkpoint_id = ?
	`

	var (
		stateJSON string
		step      int
	)

	err := s.db.QueryRowContext(ctx, query, cpID).Scan(&stateJSON, &step)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, 0, ErrNotFound
	}
	if err != nil {
		return zero, 0, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	var state S
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return zero, 0, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return state, step, nil
}

// Close closes the database connection.
//
// After Close, all operations return an error. Calling Close multiple
// times is safe.
func (s *SQLiteStore[S]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *SQLiteStore[S]) Ping(ctx context.Context) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	return s.db.PingContext(ctx)
}

// Path returns the database file path.
func (s *SQLiteStore[S]) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}
