package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemStore is an in-memory Store[S].
//
// It keeps run history and checkpoints in maps, which makes it the
// right backend for tests and single-shot sessions where nothing
// needs to survive the process. Thread-safe.
//
// MemStore also round-trips through JSON (MarshalJSON/UnmarshalJSON)
// so a finished session's history can be dumped to a file and loaded
// back for inspection.
type MemStore[S any] struct {
	mu          sync.RWMutex
	steps       map[string][]StepRecord[S] // runID -> steps in save order
	checkpoints map[string]Checkpoint[S]   // checkpointID -> checkpoint
}

// NewMemStore creates an empty in-memory store.
func NewMemStore[S any]() *MemStore[S] {
	return &MemStore[S]{
		steps:       make(map[string][]StepRecord[S]),
		checkpoints: make(map[string]Checkpoint[S]),
	}
}

// SaveStep appends a step to the run's history.
func (m *MemStore[S]) SaveStep(_ context.Context, runID string, step int, nodeID string, state S) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.steps[runID] = append(m.steps[runID], StepRecord[S]{
		Step:   step,
		NodeID: nodeID,
		State:  state,
	})
	return nil
}

// LoadLatest returns the record with the highest step number, which
// handles out-of-order saves correctly.
func (m *MemStore[S]) LoadLatest(_ context.Context, runID string) (state S, step int, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records, exists := m.steps[runID]
	if !exists || len(records) == 0 {
		var zero S
		return zero, 0, ErrNotFound
	}

	latest := records[0]
	for _, record := range records[1:] {
		if record.Step > latest.Step {
			latest = record
		}
	}

	return latest.State, latest.Step, nil
}

// SaveCheckpoint stores a named snapshot, overwriting any existing
// checkpoint with the same ID.
func (m *MemStore[S]) SaveCheckpoint(_ context.Context, cpID string, state S, step int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkpoints[cpID] = Checkpoint[S]{
		ID:    cpID,
		State: state,
		Step:  step,
	}
	return nil
}

// LoadCheckpoint retrieves a named snapshot.
func (m *MemStore[S]) LoadCheckpoint(_ context.Context, cpID string) (state S, step int, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp, exists := m.checkpoints[cpID]
	if !exists {
		var zero S
		return zero, 0, ErrNotFound
	}

	return cp.State, cp.Step, nil
}

type serializableMemStore[S any] struct {
	Steps       map[string][]StepRecord[S] `json:"steps"`
	Checkpoints map[string]Checkpoint[S]   `json:"checkpoints"`
}

// MarshalJSON serializes the store contents. State values must be
// JSON-serializable.
func (m *MemStore[S]) MarshalJSON() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return json.Marshal(serializableMemStore[S]{
		Steps:       m.steps,
		Checkpoints: m.checkpoints,
	})
}

// UnmarshalJSON replaces the store contents with the deserialized
// data.
func (m *MemStore[S]) UnmarshalJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var s serializableMemStore[S]
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	m.steps = s.Steps
	m.checkpoints = s.Checkpoints

	if m.steps == nil {
		m.steps = make(map[string][]StepRecord[S])
	}
	if m.checkpoints == nil {
		m.checkpoints = make(map[string]Checkpoint[S])
	}

	return nil
}
