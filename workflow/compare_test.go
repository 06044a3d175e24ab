package workflow

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dshills/draftloop-go/flow"
)

func TestRenderComparison(t *testing.T) {
	comparison := Comparison{
		Task:         "Write the report.",
		SingleReport: "The single-agent report body.",
		MultiReport:  "The multi-agent report body.",
		Scores:       Scorecard{SingleAgent: "6.5", MultiAgent: "9.0"},
		Session: SessionState{
			RevisionNumber: 2,
			Audit: []AuditEntry{
				{Agent: NodePlanner, Output: "plan"},
				{Agent: NodeCritic, Output: "1. Fix."},
			},
		},
	}

	var buf bytes.Buffer
	RenderComparison(&buf, comparison)
	output := buf.String()

	if !strings.Contains(output, strings.Repeat("=", 80)) {
		t.Error("expected an 80-column banner rule")
	}
	if !strings.Contains(output, strings.Repeat("-", 80)) {
		t.Error("expected an 80-column divider")
	}
	if !strings.Contains(output, "COMPARISON OF FINAL REPORTS") {
		t.Error("expected the comparison header")
	}

	assertOrder(t, output,
		"--- SINGLE-AGENT RESPONSE (SCORE: 6.5/10) ---",
		"The single-agent report body.",
		"--- MULTI-AGENT RESPONSE (SCORE: 9.0/10) ---",
		"The multi-agent report body.",
		"Revision passes: 2",
		"Session audit:",
	)

	if strings.Contains(output, "LLM usage:") {
		t.Error("cost line should be absent without a tracker")
	}
}

func TestRenderComparison_SentinelScores(t *testing.T) {
	var buf bytes.Buffer
	RenderComparison(&buf, Comparison{
		SingleReport: "one",
		MultiReport:  "two",
		Scores:       Scorecard{SingleAgent: ScoreUnavailable, MultiAgent: ScoreUnavailable},
	})

	if !strings.Contains(buf.String(), "(SCORE: N/A/10)") {
		t.Error("sentinel scores should render as N/A")
	}
}

func TestRenderComparison_WithCosts(t *testing.T) {
	costs := flow.NewCostTracker("run-060", "USD")
	costs.RecordLLMCall("gemini-1.5-flash", 1000, 500, NodeWriter)

	var buf bytes.Buffer
	RenderComparison(&buf, Comparison{
		SingleReport: "one",
		MultiReport:  "two",
		Scores:       Scorecard{SingleAgent: "7", MultiAgent: "8"},
		Costs:        costs,
	})

	output := buf.String()
	if !strings.Contains(output, "LLM usage: 1 calls, 1000 input tokens, 500 output tokens") {
		t.Errorf("expected the cost summary, got:\n%s", output)
	}
}
