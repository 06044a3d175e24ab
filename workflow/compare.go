package workflow

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/draftloop-go/flow"
)

// Comparison bundles everything the final report renders: both
// reports, their scores, and the session that produced the multi-agent
// one.
type Comparison struct {
	Task         string
	SingleReport string
	MultiReport  string
	Scores       Scorecard
	Session      SessionState
	Costs        *flow.CostTracker
}

// RenderComparison writes the side-by-side report with scores,
// followed by the session summary and, when cost tracking is on, the
// LLM spend.
func RenderComparison(w io.Writer, c Comparison) {
	rule := strings.Repeat("=", 80)
	thin := strings.Repeat("-", 80)

	fmt.Fprintln(w, "\n"+rule)
	fmt.Fprintln(w, "                      COMPARISON OF FINAL REPORTS")
	fmt.Fprintln(w, rule+"\n")

	fmt.Fprintf(w, "--- SINGLE-AGENT RESPONSE (SCORE: %s/10) ---\n", c.Scores.SingleAgent)
	fmt.Fprintln(w, c.SingleReport)
	fmt.Fprintln(w, "\n"+thin+"\n")

	fmt.Fprintf(w, "--- MULTI-AGENT RESPONSE (SCORE: %s/10) ---\n", c.Scores.MultiAgent)
	fmt.Fprintln(w, c.MultiReport)
	fmt.Fprintln(w, "\n"+rule)

	fmt.Fprintf(w, "\nRevision passes: %d\n", c.Session.RevisionNumber)
	if len(c.Session.Audit) > 0 {
		fmt.Fprintln(w, "Session audit:")
		for i, entry := range c.Session.Audit {
			fmt.Fprintf(w, "  %2d. %-12s %6d chars\n", i+1, entry.Agent, len(entry.Output))
		}
	}
	if c.Costs != nil {
		in, out := c.Costs.GetTokenUsage()
		fmt.Fprintf(w, "LLM usage: %d calls, %d input tokens, %d output tokens, $%.4f total\n",
			len(c.Costs.GetCallHistory()), in, out, c.Costs.GetTotalCost())
	}
}
