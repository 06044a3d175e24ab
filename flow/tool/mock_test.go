package tool

import (
	"context"
	"errors"
	"testing"
)

func TestMockTool_ImplementsTool(t *testing.T) {
	var _ Tool = (*MockTool)(nil)
	var _ Tool = (*HTTPTool)(nil)
}

func TestMockTool_ResponseSequencing(t *testing.T) {
	mock := &MockTool{
		ToolName: "fetch_url",
		Responses: []map[string]interface{}{
			{"body": "first"},
			{"body": "second"},
		},
	}
	ctx := context.Background()

	out, err := mock.Call(ctx, map[string]interface{}{"url": "http://a"})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if out["body"] != "first" {
		t.Errorf("expected first response, got %v", out["body"])
	}

	out, _ = mock.Call(ctx, nil)
	if out["body"] != "second" {
		t.Errorf("expected second response, got %v", out["body"])
	}

	// Exhausted: last response repeats.
	out, _ = mock.Call(ctx, nil)
	if out["body"] != "second" {
		t.Errorf("expected repeated last response, got %v", out["body"])
	}

	if mock.CallCount() != 3 {
		t.Errorf("expected 3 recorded calls, got %d", mock.CallCount())
	}
}

func TestMockTool_ErrorInjection(t *testing.T) {
	wantErr := errors.New("fetch failed")
	mock := &MockTool{ToolName: "fetch_url", Err: wantErr}

	_, err := mock.Call(context.Background(), map[string]interface{}{"url": "http://a"})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected injected error, got %v", err)
	}

	// The failed call is still recorded.
	if mock.CallCount() != 1 {
		t.Errorf("expected 1 recorded call, got %d", mock.CallCount())
	}
}

func TestMockTool_RecordsInput(t *testing.T) {
	mock := &MockTool{ToolName: "fetch_url"}

	input := map[string]interface{}{"url": "http://example.com/report"}
	_, _ = mock.Call(context.Background(), input)

	if len(mock.Calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(mock.Calls))
	}
	if mock.Calls[0].Input["url"] != "http://example.com/report" {
		t.Errorf("recorded input mismatch: %v", mock.Calls[0].Input)
	}
}

func TestMockTool_Reset(t *testing.T) {
	mock := &MockTool{
		ToolName:  "fetch_url",
		Responses: []map[string]interface{}{{"body": "a"}, {"body": "b"}},
	}
	ctx := context.Background()

	_, _ = mock.Call(ctx, nil)
	_, _ = mock.Call(ctx, nil)
	mock.Reset()

	if mock.CallCount() != 0 {
		t.Errorf("expected 0 calls after Reset, got %d", mock.CallCount())
	}

	out, _ := mock.Call(ctx, nil)
	if out["body"] != "a" {
		t.Errorf("expected sequence restart after Reset, got %v", out["body"])
	}
}

func TestMockTool_ContextCancellation(t *testing.T) {
	mock := &MockTool{ToolName: "fetch_url"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := mock.Call(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if mock.CallCount() != 0 {
		t.Error("cancelled call should not be recorded")
	}
}
