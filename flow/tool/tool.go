// Package tool defines executable tools that workflow nodes can invoke.
//
// The researcher uses tools to pull background material from outside the
// model before drafting begins. Tools take and return loosely-typed maps
// so that new tools can be added without touching node code.
package tool

import "context"

// Tool is an executable capability a node can call during a run.
//
// Implementations should validate their input, respect context
// cancellation, and return structured output as a map. Errors from a
// tool are recoverable: callers are expected to degrade gracefully
// rather than abort the session.
type Tool interface {
	// Name returns the unique identifier for this tool.
	//
	// Names are lowercase with underscores, like function names:
	// "fetch_url", "search_web".
	Name() string

	// Call executes the tool with the provided input.
	//
	// The input may be nil for parameterless tools. Implementations
	// should check ctx.Err() before expensive operations and return
	// descriptive errors for invalid inputs.
	Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error)
}
