// Package flow provides a sequential graph engine for stateful LLM
// workflows: nodes produce state deltas merged through a reducer,
// routing follows explicit node decisions or declared edges, and every
// step is persisted and observable.
package flow

import (
	"context"
	"sync"
	"time"

	"github.com/dshills/draftloop-go/flow/emit"
	"github.com/dshills/draftloop-go/flow/store"
)

// Engine orchestrates stateful workflow execution.
//
// The engine owns the graph topology (nodes and edges), runs nodes one
// at a time, merges their deltas via the reducer, persists state after
// every step, and emits observability events. Execution limits
// (MaxSteps, node timeouts, a wall-clock budget) come from Options.
//
// Type parameter S is the state type shared across the workflow.
//
// Example:
//
//	engine := flow.New(reducer, store.NewMemStore[SessionState](),
//	    emit.NewLogEmitter(nil, false),
//	    flow.WithMaxSteps(25),
//	)
//	_ = engine.Add("planner", plannerNode)
//	_ = engine.StartAt("planner")
//	final, err := engine.Run(ctx, "run-001", SessionState{Task: task})
type Engine[S any] struct {
	mu sync.RWMutex

	// reducer merges partial state updates deterministically
	reducer Reducer[S]

	// nodes maps node IDs to Node implementations
	nodes map[string]Node[S]

	// edges defines fallback transitions between nodes
	edges []Edge[S]

	// startNode is the entry point for execution
	startNode string

	// store persists state and checkpoints
	store store.Store[S]

	// emitter receives observability events; may be nil
	emitter emit.Emitter

	// opts holds execution configuration
	opts Options
}

// New creates an Engine with the given configuration.
//
// The reducer and store are required for Run; the emitter may be nil
// for silent execution. Behavior is tuned through functional options.
// Missing required parameters surface as errors from Run rather than
// New, so construction order stays flexible.
func New[S any](reducer Reducer[S], st store.Store[S], emitter emit.Emitter, opts ...Option) *Engine[S] {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}

	return &Engine[S]{
		reducer: reducer,
		nodes:   make(map[string]Node[S]),
		edges:   make([]Edge[S], 0),
		store:   st,
		emitter: emitter,
		opts:    options,
	}
}

// Add registers a node in the workflow graph.
//
// Node IDs must be unique and non-empty.
func (e *Engine[S]) Add(nodeID string, node Node[S]) error {
	if nodeID == "" {
		return &EngineError{Message: "node ID cannot be empty"}
	}
	if node == nil {
		return &EngineError{Message: "node cannot be nil"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; exists {
		return &EngineError{
			Message: "duplicate node ID: " + nodeID,
			Code:    "DUPLICATE_NODE",
		}
	}

	e.nodes[nodeID] = node
	return nil
}

// StartAt sets the entry point for execution.
//
// The node must already be registered via Add.
func (e *Engine[S]) StartAt(nodeID string) error {
	if nodeID == "" {
		return &EngineError{Message: "start node ID cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; !exists {
		return &EngineError{
			Message: "start node does not exist: " + nodeID,
			Code:    "NODE_NOT_FOUND",
		}
	}

	e.startNode = nodeID
	return nil
}

// Connect declares an edge between two nodes.
//
// A nil predicate makes the edge unconditional. Node existence is not
// validated here so graphs can be wired in any order; a bad target
// surfaces as NODE_NOT_FOUND during execution.
//
//	_ = engine.Connect("planner", "researcher", nil)
//	_ = engine.Connect("critic", "reviser", func(s SessionState) bool {
//	    return s.Critique != ""
//	})
func (e *Engine[S]) Connect(from, to string, predicate Predicate[S]) error {
	if from == "" {
		return &EngineError{Message: "from node ID cannot be empty"}
	}
	if to == "" {
		return &EngineError{Message: "to node ID cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.edges = append(e.edges, Edge[S]{From: from, To: to, When: predicate})
	return nil
}

// Run executes the workflow from the start node to completion.
//
// Each step: the current node runs against a deep copy of the state,
// its delta is merged via the reducer, the new state is persisted,
// and routing picks the next node (explicit Route first, then edges).
// A Terminal route ends the run and returns the final state.
//
// Node errors are fatal and abort the run wrapped in a NodeError.
// Limit violations return EngineError (MAX_STEPS_EXCEEDED, NODE_TIMEOUT,
// NO_ROUTE); an exhausted wall-clock budget returns the context error.
func (e *Engine[S]) Run(ctx context.Context, runID string, initial S) (S, error) {
	var zero S

	if err := e.validate(); err != nil {
		return zero, err
	}
	if e.startNode == "" {
		return zero, &EngineError{
			Message: "start node not set (call StartAt before Run)",
			Code:    "NO_START_NODE",
		}
	}

	return e.run(ctx, runID, initial, e.startNode)
}

// SaveCheckpoint snapshots the most recent persisted state of a run
// under a checkpoint ID.
//
// Checkpoints enable manual resumption points and branching: run once,
// checkpoint, then resume several times with different downstream
// paths.
func (e *Engine[S]) SaveCheckpoint(ctx context.Context, runID string, cpID string) error {
	latestState, latestStep, err := e.store.LoadLatest(ctx, runID)
	if err != nil {
		return &EngineError{
			Message: "cannot create checkpoint: run state not found: " + err.Error(),
			Code:    "RUN_NOT_FOUND",
		}
	}

	if err := e.store.SaveCheckpoint(ctx, cpID, latestState, latestStep); err != nil {
		return &EngineError{
			Message: "failed to save checkpoint: " + err.Error(),
			Code:    "CHECKPOINT_SAVE_FAILED",
		}
	}

	e.emit(emit.Event{
		RunID:  runID,
		Step:   latestStep,
		Msg:    "checkpoint_saved",
		Meta:   map[string]interface{}{"checkpoint_id": cpID},
		NodeID: "",
	})

	return nil
}

// ResumeFromCheckpoint continues execution from a saved checkpoint
// under a new run ID, starting at the given node.
//
// The checkpoint state becomes the initial state of the new run. The
// start node is typically the node that would have run next when the
// checkpoint was taken.
func (e *Engine[S]) ResumeFromCheckpoint(ctx context.Context, cpID string, newRunID string, startNode string) (S, error) {
	var zero S

	if err := e.validate(); err != nil {
		return zero, err
	}
	if startNode == "" {
		return zero, &EngineError{
			Message: "start node not specified for resume",
			Code:    "NO_START_NODE",
		}
	}

	checkpointState, checkpointStep, err := e.store.LoadCheckpoint(ctx, cpID)
	if err != nil {
		return zero, &EngineError{
			Message: "cannot resume: checkpoint not found: " + err.Error(),
			Code:    "CHECKPOINT_NOT_FOUND",
		}
	}

	e.emit(emit.Event{
		RunID:  newRunID,
		NodeID: startNode,
		Msg:    "resume",
		Meta: map[string]interface{}{
			"checkpoint_id":   cpID,
			"checkpoint_step": checkpointStep,
		},
	})

	return e.run(ctx, newRunID, checkpointState, startNode)
}

// validate checks the configuration both Run and Resume require.
func (e *Engine[S]) validate() error {
	if e.reducer == nil {
		return &EngineError{Message: "reducer is required", Code: "MISSING_REDUCER"}
	}
	if e.store == nil {
		return &EngineError{Message: "store is required", Code: "MISSING_STORE"}
	}
	return nil
}

// run is the shared execution loop behind Run and ResumeFromCheckpoint.
func (e *Engine[S]) run(ctx context.Context, runID string, initial S, startNode string) (S, error) {
	var zero S

	e.mu.RLock()
	_, exists := e.nodes[startNode]
	e.mu.RUnlock()
	if !exists {
		return zero, &EngineError{
			Message: "start node does not exist: " + startNode,
			Code:    "NODE_NOT_FOUND",
		}
	}

	if e.opts.RunWallClockBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.RunWallClockBudget)
		defer cancel()
	}

	e.emit(emit.Event{RunID: runID, NodeID: startNode, Msg: "run_start"})

	currentState := initial
	currentNode := startNode
	step := 0

	for {
		step++

		if e.opts.MaxSteps > 0 && step > e.opts.MaxSteps {
			return zero, &EngineError{
				Message: "workflow exceeded MaxSteps limit",
				Code:    "MAX_STEPS_EXCEEDED",
			}
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		e.mu.RLock()
		nodeImpl, exists := e.nodes[currentNode]
		e.mu.RUnlock()
		if !exists {
			return zero, &EngineError{
				Message: "node not found during execution: " + currentNode,
				Code:    "NODE_NOT_FOUND",
			}
		}

		e.emit(emit.Event{RunID: runID, Step: step, NodeID: currentNode, Msg: "node_start"})

		// Nodes receive a copy so in-place mutation cannot bypass the
		// reducer.
		nodeState, err := deepCopy(currentState)
		if err != nil {
			return zero, &EngineError{
				Message: "failed to copy state for node " + currentNode + ": " + err.Error(),
				Code:    "STATE_COPY_FAILED",
			}
		}

		start := time.Now()
		result, timeoutErr := runNodeWithTimeout(ctx, nodeImpl, currentNode, nodeState, e.opts.DefaultNodeTimeout)
		latency := time.Since(start)

		if timeoutErr != nil {
			e.recordStep(currentNode, "timeout", latency)
			e.emitError(runID, step, currentNode, timeoutErr)
			return zero, timeoutErr
		}

		if result.Err != nil {
			e.recordStep(currentNode, "error", latency)
			e.emitError(runID, step, currentNode, result.Err)
			return zero, &NodeError{NodeID: currentNode, Cause: result.Err}
		}

		e.recordStep(currentNode, "success", latency)

		currentState = e.reducer(currentState, result.Delta)

		if err := e.store.SaveStep(ctx, runID, step, currentNode, currentState); err != nil {
			return zero, &EngineError{
				Message: "failed to save step: " + err.Error(),
				Code:    "STORE_ERROR",
			}
		}

		e.emit(emit.Event{
			RunID:  runID,
			Step:   step,
			NodeID: currentNode,
			Msg:    "node_complete",
			Meta:   map[string]interface{}{"duration_ms": latency.Milliseconds()},
		})

		if result.Route.Terminal {
			e.emit(emit.Event{
				RunID:  runID,
				Step:   step,
				NodeID: currentNode,
				Msg:    "routing_decision",
				Meta:   map[string]interface{}{"terminal": true},
			})
			e.emit(emit.Event{
				RunID: runID,
				Msg:   "run_complete",
				Meta:  map[string]interface{}{"steps": step},
			})
			return currentState, nil
		}

		next := result.Route.To
		if next == "" {
			next = e.evaluateEdges(currentNode, currentState)
		}
		if next == "" {
			routeErr := &EngineError{
				Message: "no valid route from node: " + currentNode,
				Code:    "NO_ROUTE",
			}
			e.emitError(runID, step, currentNode, routeErr)
			return zero, routeErr
		}

		e.emit(emit.Event{
			RunID:  runID,
			Step:   step,
			NodeID: currentNode,
			Msg:    "routing_decision",
			Meta:   map[string]interface{}{"next_node": next},
		})

		currentNode = next
	}
}

// evaluateEdges finds the first matching edge from a node.
//
// Edges are evaluated in declaration order; a nil predicate always
// matches. Returns the empty string when nothing matches.
func (e *Engine[S]) evaluateEdges(fromNode string, state S) string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, edge := range e.edges {
		if edge.From != fromNode {
			continue
		}
		if edge.When == nil || edge.When(state) {
			return edge.To
		}
	}

	return ""
}

func (e *Engine[S]) emit(event emit.Event) {
	if e.emitter != nil {
		e.emitter.Emit(event)
	}
}

func (e *Engine[S]) emitError(runID string, step int, nodeID string, err error) {
	e.emit(emit.Event{
		RunID:  runID,
		Step:   step,
		NodeID: nodeID,
		Msg:    "error",
		Meta:   map[string]interface{}{"error": err.Error()},
	})
}

func (e *Engine[S]) recordStep(nodeID, status string, latency time.Duration) {
	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordStep(nodeID, status, latency)
	}
}
