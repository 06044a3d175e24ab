package flow

import (
	"context"
	"errors"
	"testing"
)

func TestNext_Helpers(t *testing.T) {
	t.Run("Stop terminates", func(t *testing.T) {
		next := Stop()
		if !next.Terminal {
			t.Error("Stop() should set Terminal")
		}
		if next.To != "" {
			t.Errorf("Stop() should not name a target, got %q", next.To)
		}
	})

	t.Run("Goto targets a node", func(t *testing.T) {
		next := Goto("reviser")
		if next.Terminal {
			t.Error("Goto() should not set Terminal")
		}
		if next.To != "reviser" {
			t.Errorf("expected target 'reviser', got %q", next.To)
		}
	})

	t.Run("zero value defers to edges", func(t *testing.T) {
		var next Next
		if next.Terminal || next.To != "" {
			t.Errorf("zero Next should be empty, got %+v", next)
		}
	})
}

func TestNodeFunc(t *testing.T) {
	var node Node[TestState] = NodeFunc[TestState](func(ctx context.Context, s TestState) NodeResult[TestState] {
		return NodeResult[TestState]{
			Delta: TestState{Counter: s.Counter + 1},
			Route: Stop(),
		}
	})

	result := node.Run(context.Background(), TestState{Counter: 41})
	if result.Delta.Counter != 42 {
		t.Errorf("expected Delta.Counter 42, got %d", result.Delta.Counter)
	}
	if !result.Route.Terminal {
		t.Error("expected terminal route")
	}
}

func TestNodeError(t *testing.T) {
	cause := errors.New("rate limited")

	t.Run("message includes node ID", func(t *testing.T) {
		err := &NodeError{NodeID: "critic", Cause: cause}
		if err.Error() != "node critic: rate limited" {
			t.Errorf("unexpected message: %q", err.Error())
		}
	})

	t.Run("message without node ID", func(t *testing.T) {
		err := &NodeError{Cause: cause}
		if err.Error() != "rate limited" {
			t.Errorf("unexpected message: %q", err.Error())
		}
	})

	t.Run("unwraps to cause", func(t *testing.T) {
		err := &NodeError{NodeID: "critic", Cause: cause}
		if !errors.Is(err, cause) {
			t.Error("errors.Is should reach the cause")
		}
	})
}
