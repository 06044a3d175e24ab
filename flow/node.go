package flow

import "context"

// Node is a processing unit in the workflow.
//
// A node receives the current state, performs its work (an LLM call, a
// tool invocation, plain computation), and returns a NodeResult holding
// its state delta and routing decision.
//
// Type parameter S is the state type shared across the workflow.
type Node[S any] interface {
	// Run executes the node's logic with the given context and state.
	//
	// The state passed in is a copy; mutations to it are invisible to
	// the engine. State changes must be returned through Delta.
	Run(ctx context.Context, state S) NodeResult[S]
}

// NodeResult is the output of a node execution.
type NodeResult[S any] struct {
	// Delta is the partial state update produced by this node. It is
	// merged into the accumulated state by the configured reducer.
	Delta S

	// Route is the node's routing decision. Use Stop() to end the
	// run, Goto(id) to jump to a specific node, or leave it zero to
	// fall back to edge-based routing.
	Route Next

	// Err aborts the run when non-nil. Node errors are fatal: the
	// engine does not retry or route around them.
	Err error
}

// Next specifies where execution goes after a node completes.
//
// The zero value defers the decision to the graph's edges.
type Next struct {
	// To names the next node to execute.
	To string

	// Terminal ends the run when true.
	Terminal bool
}

// Stop returns a Next that terminates the run.
func Stop() Next {
	return Next{Terminal: true}
}

// Goto returns a Next that routes to the specified node.
func Goto(nodeID string) Next {
	return Next{To: nodeID}
}

// NodeFunc adapts a plain function to the Node interface.
//
// Example:
//
//	plan := NodeFunc[SessionState](func(ctx context.Context, s SessionState) NodeResult[SessionState] {
//	    return NodeResult[SessionState]{
//	        Delta: SessionState{Plan: "outline"},
//	    }
//	})
type NodeFunc[S any] func(ctx context.Context, state S) NodeResult[S]

// Run implements the Node interface.
func (f NodeFunc[S]) Run(ctx context.Context, state S) NodeResult[S] {
	return f(ctx, state)
}

// NodeError attributes a failure to the node that produced it.
//
// The engine wraps node errors in NodeError before returning them from
// Run, so callers can tell which agent failed while still unwrapping
// to the underlying cause (for example a model.ProviderError).
type NodeError struct {
	// NodeID identifies which node produced this error.
	NodeID string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	if e.NodeID != "" {
		return "node " + e.NodeID + ": " + e.Cause.Error()
	}
	return e.Cause.Error()
}

// Unwrap returns the underlying cause for errors.Is and errors.As.
func (e *NodeError) Unwrap() error {
	return e.Cause
}
