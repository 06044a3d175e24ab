package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore persists session state in a MySQL or MariaDB database.
//
// It is the right backend when revision sessions run on shared
// infrastructure: multiple hosts can write to the same database, and
// the session history doubles as an audit trail.
//
// Schema:
//   - session_steps: step-by-step history for each run
//   - session_checkpoints: named snapshots for resumption
//
// Type parameter S is the state type to persist (must be
// JSON-serializable).
type MySQLStore[S any] struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewMySQLStore creates a MySQL-backed store from a DSN.
//
// The DSN format follows go-sql-driver/mysql:
//
//	user:password@tcp(localhost:3306)/draftloop?parseTime=true
//
// Never hardcode credentials; read the DSN from the environment:
//
//	store, err := NewMySQLStore[workflow.SessionState](os.Getenv("MYSQL_DSN"))
//
// The constructor verifies connectivity and creates the schema if it
// doesn't already exist.
func NewMySQLStore[S any](dsn string) (*MySQLStore[S], error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	m := &MySQLStore[S]{db: db}

	if err := m.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return m, nil
}

// createTables sets up the schema if it doesn't already exist.
func (m *MySQLStore[S]) createTables(ctx context.Context) error {
	stepsTable := `
		CREATE TABLE IF NOT EXISTS session_steps (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			run_id VARCHAR(255) NOT NULL,
			step INT NOT NULL,
			node_id VARCHAR(255) NOT NULL,
			state JSON NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_run_id (run_id),
			INDEX idx_run_step (run_id, step),
			UNIQUE KEY unique_run_step (run_id, step)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`

	if _, err := m.db.ExecContext(ctx, stepsTable); err != nil {
		return fmt.Errorf("failed to create session_steps table: %w", err)
	}

	checkpointsTable := `
		CREATE TABLE IF NOT EXISTS session_checkpoints (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			checkpoint_id VARCHAR(255) NOT NULL UNIQUE,
			state JSON NOT NULL,
			step INT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`

	if _, err := m.db.ExecContext(ctx, checkpointsTable); err != nil {
		return fmt.Errorf("failed to create session_checkpoints table: %w", err)
	}

	return nil
}

// SaveStep persists the state after a node ran.
//
// Saving the same (runID, step) again overwrites the previous record.
func (m *MySQLStore[S]) SaveStep(ctx context.Context, runID string, step int, nodeID string, state S) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	m.mu.RUnlock()

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	query := `
		INSERT INTO session_steps (run_id, step, node_id, state)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			node_id = VALUES(node_id),
			state = VALUES(state)
	`

	if _, err := m.db.ExecContext(ctx, query, runID, step, nodeID, stateJSON); err != nil {
		return fmt.Errorf("failed to save step: %w", err)
	}

	return nil
}

// LoadLatest returns the most recent state for a run.
//
// Returns ErrNotFound if the run has no saved steps.
func (m *MySQLStore[S]) LoadLatest(ctx context.Context, runID string) (S, int, error) {
	var zero S

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return zero, 0, fmt.Errorf("store is closed")
	}
	m.mu.RUnlock()

	query := `
		SELECT step, state
		FROM session_steps
		WHERE run_id = ?
		ORDER BY step DESC
		LIMIT 1
	`

	var (
		step      int
		stateJSON []byte
	)

	err := m.db.QueryRowContext(ctx, query, runID).Scan(&step, &stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, 0, ErrNotFound
	}
	if err != nil {
		return zero, 0, fmt.Errorf("failed to load latest step: %w", err)
	}

	var state S
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		return zero, 0, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return state, step, nil
}

// SaveCheckpoint stores a named snapshot of the state.
//
// Saving to an existing checkpoint ID overwrites it.
func (m *MySQLStore[S]) SaveCheckpoint(ctx context.Context, cpID string, state S, step int) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	m.mu.RUnlock()

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	query := `
		INSERT INTO session_checkpoints (checkpoint_id, state, step)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			state = VALUES(state),
			step = VALUES(step),
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := m.db.ExecContext(ctx, query, cpID, stateJSON, step); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	return nil
}

// LoadCheckpoint retrieves a named snapshot.
//
// Returns ErrNotFound if no checkpoint exists with the given ID.
func (m *MySQLStore[S]) LoadCheckpoint(ctx context.Context, cpID string) (S, int, error) {
	var zero S

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return zero, 0, fmt.Errorf("store is closed")
	}
	m.mu.RUnlock()

	query := `
		SELECT state, step
		FROM session_checkpoints
		WHERE checkpoint_id = ?
	`

	var (
		stateJSON []byte
		step      int
	)

	err := m.db.QueryRowContext(ctx, query, cpID).Scan(&stateJSON, &step)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, 0, ErrNotFound
	}
	if err != nil {
		return zero, 0, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	var state S
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		return zero, 0, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return state, step, nil
}

// Close closes the database connection pool.
//
// After Close, all operations return an error. Calling Close multiple
// times is safe.
func (m *MySQLStore[S]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true
	return m.db.Close()
}

// Ping verifies the database connection is alive.
func (m *MySQLStore[S]) Ping(ctx context.Context) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	m.mu.RUnlock()

	return m.db.PingContext(ctx)
}

// Stats returns connection pool statistics for monitoring.
func (m *MySQLStore[S]) Stats() sql.DBStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db.Stats()
}
