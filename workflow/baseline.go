package workflow

import (
	"context"
	"fmt"
)

// singleAgentPrompt is the one-shot expert prompt the baseline uses in
// place of the full pipeline.
const singleAgentPrompt = "You are an expert. Write a detailed report on this task: %s"

// Baseline generates the single-agent comparison report: one expert
// prompt, one generation, no planning or revision.
func (p *Pipeline) Baseline(ctx context.Context, task string) (string, error) {
	p.gen.say("\n--- Running Single-Agent Comparison ---")
	return p.gen.generate(ctx, "baseline", fmt.Sprintf(singleAgentPrompt, task))
}
