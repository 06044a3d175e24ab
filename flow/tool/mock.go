package tool

import (
	"context"
	"sync"
)

// MockTool is a scripted Tool for tests.
//
// Responses are returned in order; once exhausted, the last response
// repeats. If Err is set it is returned instead. Every invocation is
// recorded in Calls.
type MockTool struct {
	// ToolName is the identifier returned by Name().
	ToolName string

	// Responses is the sequence of outputs to return.
	Responses []map[string]interface{}

	// Err, if set, is returned by Call() instead of a response.
	Err error

	// Calls records the history of all Call() invocations.
	Calls []MockToolCall

	mu        sync.Mutex
	callIndex int
}

// MockToolCall records a single invocation of Call().
type MockToolCall struct {
	Input map[string]interface{}
}

// Name implements the Tool interface.
func (m *MockTool) Name() string {
	return m.ToolName
}

// Call implements the Tool interface.
//
// The call is recorded even when an error is returned.
func (m *MockTool) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockToolCall{Input: input})

	if m.Err != nil {
		return nil, m.Err
	}

	if len(m.Responses) == 0 {
		return map[string]interface{}{}, nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}

	return m.Responses[idx], nil
}

// Reset clears the call history and response index.
func (m *MockTool) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = nil
	m.callIndex = 0
}

// CallCount returns how many times Call() has been invoked.
func (m *MockTool) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.Calls)
}
