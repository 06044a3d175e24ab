package emit

import (
	"bytes"
	"strings"
	"testing"
)

func TestNullEmitter_DiscardsEvents(t *testing.T) {
	emitter := NewNullEmitter()

	// Must not panic and must not retain anything.
	emitter.Emit(Event{RunID: "report-001", NodeID: "planner", Msg: "node_start"})
	emitter.Emit(Event{RunID: "report-001", NodeID: "critic", Msg: "error"})
}

func TestNullEmitter_InterfaceContract(_ *testing.T) {
	var _ Emitter = NewNullEmitter()
}

func TestMultiEmitter_FansOut(t *testing.T) {
	t.Run("delivers to every backend", func(t *testing.T) {
		var buf bytes.Buffer
		logEmitter := NewLogEmitter(&buf, false)
		buffered := NewBufferedEmitter()

		multi := NewMultiEmitter(logEmitter, buffered)
		multi.Emit(Event{RunID: "report-001", Step: 1, NodeID: "planner", Msg: "node_start"})

		if !strings.Contains(buf.String(), "node_start") {
			t.Error("expected log backend to receive the event")
		}
		if len(buffered.GetHistory("report-001")) != 1 {
			t.Error("expected buffered backend to receive the event")
		}
	})

	t.Run("skips nil backends", func(t *testing.T) {
		buffered := NewBufferedEmitter()

		multi := NewMultiEmitter(nil, buffered, nil)
		multi.Emit(Event{RunID: "report-001", Msg: "node_start"})

		if len(buffered.GetHistory("report-001")) != 1 {
			t.Error("expected event to reach the non-nil backend")
		}
	})
}

func TestMultiEmitter_InterfaceContract(_ *testing.T) {
	var _ Emitter = NewMultiEmitter()
}
