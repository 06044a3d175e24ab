package flow

import (
	"encoding/json"
	"fmt"
)

// Reducer merges a node's partial state update into the accumulated
// state and returns the result.
//
// Reducers must be deterministic and must not mutate their arguments.
// The engine applies the reducer exactly once after every node run,
// so all state evolution flows through it.
//
// Example:
//
//	reducer := func(prev, delta SessionState) SessionState {
//	    if delta.Draft != "" {
//	        prev.Draft = delta.Draft
//	    }
//	    return prev
//	}
type Reducer[S any] func(prev, delta S) S

// deepCopy creates a deep copy of state S using a JSON round-trip.
//
// This works for any type that survives JSON serialization: primitives,
// exported struct fields, slices, and maps. Unexported fields are lost,
// and channels or functions will fail to marshal.
//
// The engine copies state before handing it to a node so that a node
// mutating its argument cannot corrupt the canonical state held by the
// run loop.
func deepCopy[S any](state S) (S, error) {
	var zero S

	data, err := json.Marshal(state)
	if err != nil {
		return zero, fmt.Errorf("failed to marshal state: %w", err)
	}

	var copied S
	if err := json.Unmarshal(data, &copied); err != nil {
		return zero, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return copied, nil
}
