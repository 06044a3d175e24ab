package emit

// Event is a single observability record produced while a flow runs.
//
// The engine emits one event per lifecycle point: a node starting, a
// routing decision, a terminal state, an error. Domain code may emit
// its own events through the same Emitter (for example an LLM call
// with token counts in Meta).
type Event struct {
	// RunID identifies the flow execution that produced this event.
	RunID string

	// Step is the 1-indexed step number within the run. Zero for
	// run-level events such as "run_start" and "run_complete".
	Step int

	// NodeID names the node this event concerns. Empty for run-level
	// events.
	NodeID string

	// Msg is a short machine-friendly label: "node_start",
	// "node_complete", "routing_decision", "llm_call", "error".
	Msg string

	// Meta carries structured detail for the event. Keys the engine
	// and workflow use:
	//   - "duration_ms": node execution time
	//   - "next_node":   routing target
	//   - "terminal":    true when the run ends at this node
	//   - "decision":    critic verdict ("end" or "revise")
	//   - "revision":    revision counter after a critique pass
	//   - "tokens_in", "tokens_out", "cost_usd", "model": LLM usage
	//   - "error":       error text
	Meta map[string]interface{}
}
