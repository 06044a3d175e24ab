// Package store provides persistence backends for flow state.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested run ID or checkpoint ID
// does not exist.
var ErrNotFound = errors.New("not found")

// Store persists flow state step by step so a run can be inspected
// afterwards or resumed from where it stopped.
//
// Implementations in this package:
//   - MemStore: in-memory, for tests and throwaway runs
//   - SQLiteStore: embedded single-file persistence
//   - MySQLStore: shared server-backed persistence
//
// Type parameter S is the state type to persist.
type Store[S any] interface {
	// SaveStep persists the state after one node execution. Steps are
	// identified by runID plus a 1-indexed step number.
	SaveStep(ctx context.Context, runID string, step int, nodeID string, state S) error

	// LoadLatest retrieves the most recent state for a run, for
	// resumption. Returns ErrNotFound for an unknown runID.
	LoadLatest(ctx context.Context, runID string) (state S, step int, err error)

	// SaveCheckpoint creates a named snapshot of the state. An
	// existing checkpoint with the same ID is overwritten.
	SaveCheckpoint(ctx context.Context, cpID string, state S, step int) error

	// LoadCheckpoint retrieves a named snapshot. Returns ErrNotFound
	// for an unknown cpID.
	LoadCheckpoint(ctx context.Context, cpID string) (state S, step int, err error)
}

// StepRecord is one entry in a run's execution history.
type StepRecord[S any] struct {
	// Step is the sequential step number (1-indexed).
	Step int

	// NodeID identifies which node produced this state.
	NodeID string

	// State is the flow state after this step completed.
	State S
}

// Checkpoint is a named snapshot of flow state.
type Checkpoint[S any] struct {
	// ID is the unique checkpoint identifier.
	ID string

	// State is the snapshotted flow state.
	State S

	// Step is the step number when this checkpoint was created.
	Step int
}
