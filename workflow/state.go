// Package workflow implements a draft/critique/revise pipeline for
// report writing.
//
// A session flows through five agents on top of the flow engine:
// planner, researcher, writer, critic, and reviser. The critic either
// approves the draft or sends it back for revision, up to a fixed
// revision ceiling. A single-agent baseline and an LLM judge allow the
// pipeline's output to be scored against a one-shot answer.
package workflow

import "time"

// SessionState is the shared state of one revision session.
//
// Task is set once at session start. Plan, Research, and Critique are
// each written by one agent; Draft is written by the writer and then
// overwritten by each revision pass. RevisionNumber counts critic
// evaluations. Audit records every agent action in order; nothing in
// the control flow reads it.
type SessionState struct {
	Task           string       `json:"task"`
	Plan           string       `json:"plan"`
	Research       string       `json:"research"`
	Draft          string       `json:"draft"`
	Critique       string       `json:"critique"`
	RevisionNumber int          `json:"revision_number"`
	Audit          []AuditEntry `json:"audit,omitempty"`
}

// AuditEntry records one agent action for post-run inspection.
type AuditEntry struct {
	// Agent is the node ID of the agent that acted.
	Agent string `json:"agent"`

	// Output is the text the agent produced.
	Output string `json:"output"`

	// At is when the action completed.
	At time.Time `json:"at"`
}

// ReduceSession merges an agent's delta into the session state.
//
// Scalar fields are last-write-wins, with empty strings treated as
// "no update" so agents only set the fields they own. RevisionNumber
// only moves forward. Audit entries append in arrival order.
func ReduceSession(prev, delta SessionState) SessionState {
	if delta.Task != "" {
		prev.Task = delta.Task
	}
	if delta.Plan != "" {
		prev.Plan = delta.Plan
	}
	if delta.Research != "" {
		prev.Research = delta.Research
	}
	if delta.Draft != "" {
		prev.Draft = delta.Draft
	}
	if delta.Critique != "" {
		prev.Critique = delta.Critique
	}
	if delta.RevisionNumber > prev.RevisionNumber {
		prev.RevisionNumber = delta.RevisionNumber
	}
	prev.Audit = append(prev.Audit, delta.Audit...)
	return prev
}
