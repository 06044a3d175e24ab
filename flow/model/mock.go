package model

import (
	"context"
	"sync"
)

// MockChatModel is a test implementation of ChatModel.
//
// It returns scripted responses in order, records every call, and can
// inject errors, so workflow behavior can be verified without real
// API calls.
//
// Example:
//
//	mock := &MockChatModel{
//	    Responses: []ChatOut{
//	        {Text: "1. Outline the topic."},
//	        {Text: "APPROVED"},
//	    },
//	}
//	out, _ := mock.Chat(ctx, messages, nil) // "1. Outline the topic."
//	out, _ = mock.Chat(ctx, messages, nil)  // "APPROVED"
type MockChatModel struct {
	// Responses is the sequence of responses to return, one per call.
	// Once exhausted, the last response repeats.
	Responses []ChatOut

	// Err, if set, is returned by every Chat call instead of a
	// response.
	Err error

	// Calls records every Chat invocation in order.
	Calls []MockChatCall

	mu        sync.Mutex
	callIndex int
}

// MockChatCall records a single Chat invocation.
type MockChatCall struct {
	Messages []Message
	Config   *GenConfig
}

// Chat implements ChatModel. The call is recorded even when an error
// is returned.
func (m *MockChatModel) Chat(ctx context.Context, messages []Message, cfg *GenConfig) (ChatOut, error) {
	if ctx.Err() != nil {
		return ChatOut{}, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockChatCall{
		Messages: messages,
		Config:   cfg,
	})

	if m.Err != nil {
		return ChatOut{}, m.Err
	}

	if len(m.Responses) == 0 {
		return ChatOut{}, nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}

	return m.Responses[idx], nil
}

// Reset clears the call history and restarts the response sequence.
func (m *MockChatModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = nil
	m.callIndex = 0
}

// CallCount returns the number of Chat invocations so far.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.Calls)
}

// LastPrompt returns the content of the final message of the most
// recent call, or the empty string when no calls were made. Agent
// nodes send single-message prompts, so this is the prompt they built.
func (m *MockChatModel) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Calls) == 0 {
		return ""
	}
	msgs := m.Calls[len(m.Calls)-1].Messages
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Content
}
