package workflow

import (
	"testing"
	"time"
)

func TestReduceSession(t *testing.T) {
	t.Run("empty delta fields do not clobber", func(t *testing.T) {
		prev := SessionState{
			Task:  "write a report",
			Plan:  "1. Outline",
			Draft: "first draft",
		}

		merged := ReduceSession(prev, SessionState{Research: "findings"})

		if merged.Task != "write a report" || merged.Plan != "1. Outline" || merged.Draft != "first draft" {
			t.Errorf("existing fields changed: %+v", merged)
		}
		if merged.Research != "findings" {
			t.Errorf("expected research to be set, got %q", merged.Research)
		}
	})

	t.Run("draft is overwritten by revisions", func(t *testing.T) {
		prev := SessionState{Draft: "first draft"}

		merged := ReduceSession(prev, SessionState{Draft: "revised draft"})

		if merged.Draft != "revised draft" {
			t.Errorf("expected revised draft, got %q", merged.Draft)
		}
	})

	t.Run("revision number only moves forward", func(t *testing.T) {
		prev := SessionState{RevisionNumber: 3}

		merged := ReduceSession(prev, SessionState{RevisionNumber: 4})
		if merged.RevisionNumber != 4 {
			t.Errorf("expected revision 4, got %d", merged.RevisionNumber)
		}

		merged = ReduceSession(merged, SessionState{RevisionNumber: 2})
		if merged.RevisionNumber != 4 {
			t.Errorf("stale revision number should be ignored, got %d", merged.RevisionNumber)
		}

		merged = ReduceSession(merged, SessionState{Critique: "more notes"})
		if merged.RevisionNumber != 4 {
			t.Errorf("zero revision in delta should not reset, got %d", merged.RevisionNumber)
		}
	})

	t.Run("audit entries accumulate in order", func(t *testing.T) {
		now := time.Now()
		state := SessionState{}

		state = ReduceSession(state, SessionState{
			Audit: []AuditEntry{{Agent: NodePlanner, Output: "plan", At: now}},
		})
		state = ReduceSession(state, SessionState{
			Audit: []AuditEntry{{Agent: NodeWriter, Output: "draft", At: now}},
		})
		state = ReduceSession(state, SessionState{Critique: "notes"})

		if len(state.Audit) != 2 {
			t.Fatalf("expected 2 audit entries, got %d", len(state.Audit))
		}
		if state.Audit[0].Agent != NodePlanner || state.Audit[1].Agent != NodeWriter {
			t.Errorf("audit order wrong: %+v", state.Audit)
		}
	})
}
