package flow

// Edge is a connection between two nodes in the workflow graph.
//
// Edges define control flow declared at construction time. They can be
// unconditional (When = nil, always traverse) or conditional (only
// traverse when the predicate returns true for the current state).
//
// A node's explicit NodeResult.Route always takes precedence over
// edge-based routing; edges are the fallback for nodes that do not
// route themselves.
type Edge[S any] struct {
	// From is the source node ID.
	From string

	// To is the destination node ID.
	To string

	// When is an optional traversal condition. Nil means the edge is
	// unconditional.
	When Predicate[S]
}

// Predicate evaluates state to decide whether an edge is traversed.
//
// Predicates should be pure functions of the state: deterministic,
// with no side effects. Typical forms:
//
//	func(s SessionState) bool { return s.Critique != "" }
//	func(s SessionState) bool { return s.RevisionNumber > 3 }
type Predicate[S any] func(state S) bool
