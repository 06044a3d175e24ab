package workflow

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dshills/draftloop-go/flow"
	"github.com/dshills/draftloop-go/flow/emit"
	"github.com/dshills/draftloop-go/flow/model"
	"github.com/dshills/draftloop-go/flow/tool"
)

// Node IDs of the pipeline agents. Exposed so callers can resume a
// checkpointed session at a specific agent.
const (
	NodePlanner    = "planner"
	NodeResearcher = "researcher"
	NodeWriter     = "writer"
	NodeCritic     = "critic"
	NodeReviser    = "reviser"
)

// Agent prompt templates.
const (
	plannerPrompt    = "You are an expert planner. Create a detailed plan for this task: %s"
	researcherPrompt = "You are an expert researcher. Gather information based on this plan: %s"
	writerPrompt     = "You are an expert writer. Write a draft report using this research: %s"
	reviserPrompt    = "You are an expert editor. Revise this draft: %s based on these critiques: %s"

	criticPrompt = "You are an expert critic. Review the draft report. If it's good, say 'APPROVED'.\n" +
		"Otherwise, provide a numbered list of specific, actionable revisions.\n" +
		"Draft: %s"
)

// maxBackgroundChars caps how much fetched source material the
// researcher splices into its prompt, per source.
const maxBackgroundChars = 2000

// generator is the shared LLM plumbing behind every agent: it sends
// the prompt, records cost and metrics, and emits an llm_call event.
type generator struct {
	model       model.ChatModel
	modelName   string
	temperature *float64
	costs       *flow.CostTracker
	metrics     *flow.PrometheusMetrics
	emitter     emit.Emitter
	out         io.Writer

	// runID tags emitted events with the session that is running.
	// Set by the pipeline at session start; sessions are sequential.
	runID string
}

// say prints one progress line to the session output.
func (g *generator) say(line string) {
	fmt.Fprintln(g.out, line)
}

func (g *generator) emit(event emit.Event) {
	if g.emitter != nil {
		g.emitter.Emit(event)
	}
}

// generate sends a single-turn prompt to the model and returns its
// reply. Generation failures are fatal to the session; the caller
// propagates them through NodeResult.Err.
func (g *generator) generate(ctx context.Context, nodeID, prompt string) (string, error) {
	out, err := g.model.Chat(ctx, []model.Message{
		{Role: model.RoleUser, Content: prompt},
	}, &model.GenConfig{Temperature: g.temperature})

	if g.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		g.metrics.RecordLLMRequest(g.modelName, status, out.Usage.InputTokens, out.Usage.OutputTokens)
	}
	if err != nil {
		return "", fmt.Errorf("%s generation failed: %w", nodeID, err)
	}

	meta := map[string]interface{}{
		"model":      g.modelName,
		"tokens_in":  out.Usage.InputTokens,
		"tokens_out": out.Usage.OutputTokens,
	}
	if g.costs != nil {
		call := g.costs.RecordLLMCall(g.modelName, int(out.Usage.InputTokens), int(out.Usage.OutputTokens), nodeID)
		meta["cost_usd"] = call.CostUSD
	}
	g.emit(emit.Event{RunID: g.runID, NodeID: nodeID, Msg: "llm_call", Meta: meta})

	return out.Text, nil
}

// plannerNode turns the task into a detailed plan.
type plannerNode struct {
	gen *generator
}

func (n *plannerNode) Run(ctx context.Context, s SessionState) flow.NodeResult[SessionState] {
	n.gen.say("---AGENT: PLANNER---")

	plan, err := n.gen.generate(ctx, NodePlanner, fmt.Sprintf(plannerPrompt, s.Task))
	if err != nil {
		return flow.NodeResult[SessionState]{Err: err}
	}

	return flow.NodeResult[SessionState]{
		Delta: SessionState{
			Plan:  plan,
			Audit: []AuditEntry{{Agent: NodePlanner, Output: plan, At: time.Now()}},
		},
	}
}

// researcherNode gathers information for the plan, optionally enriched
// with material fetched from configured HTTP sources.
type researcherNode struct {
	gen     *generator
	fetcher tool.Tool
	sources []string
}

func (n *researcherNode) Run(ctx context.Context, s SessionState) flow.NodeResult[SessionState] {
	n.gen.say("---AGENT: RESEARCHER---")

	prompt := fmt.Sprintf(researcherPrompt, s.Plan)
	if background := n.fetchBackground(ctx); background != "" {
		prompt += "\n\nBackground material:\n" + background
	}

	research, err := n.gen.generate(ctx, NodeResearcher, prompt)
	if err != nil {
		return flow.NodeResult[SessionState]{Err: err}
	}

	return flow.NodeResult[SessionState]{
		Delta: SessionState{
			Research: research,
			Audit:    []AuditEntry{{Agent: NodeResearcher, Output: research, At: time.Now()}},
		},
	}
}

// fetchBackground pulls the configured sources. Fetch failures are
// recoverable: the source is skipped with a warning and the researcher
// falls back to the plain prompt.
func (n *researcherNode) fetchBackground(ctx context.Context) string {
	if n.fetcher == nil || len(n.sources) == 0 {
		return ""
	}

	var sections []string
	for _, url := range n.sources {
		out, err := n.fetcher.Call(ctx, map[string]interface{}{"url": url})
		if err != nil {
			n.gen.say(fmt.Sprintf("warning: research source %s unavailable: %v", url, err))
			n.gen.emit(emit.Event{
				RunID:  n.gen.runID,
				NodeID: NodeResearcher,
				Msg:    "error",
				Meta:   map[string]interface{}{"error": err.Error(), "source": url},
			})
			continue
		}
		if code, _ := out["status_code"].(int); code >= 400 {
			n.gen.say(fmt.Sprintf("warning: research source %s returned status %d", url, code))
			continue
		}

		body, _ := out["body"].(string)
		if len(body) > maxBackgroundChars {
			body = body[:maxBackgroundChars]
		}
		if body != "" {
			sections = append(sections, fmt.Sprintf("Source %s:\n%s", url, body))
		}
	}

	return strings.Join(sections, "\n\n")
}

// writerNode produces the first draft from the research.
type writerNode struct {
	gen *generator
}

func (n *writerNode) Run(ctx context.Context, s SessionState) flow.NodeResult[SessionState] {
	n.gen.say("---AGENT: WRITER (DRAFTER)---")

	draft, err := n.gen.generate(ctx, NodeWriter, fmt.Sprintf(writerPrompt, s.Research))
	if err != nil {
		return flow.NodeResult[SessionState]{Err: err}
	}

	return flow.NodeResult[SessionState]{
		Delta: SessionState{
			Draft: draft,
			Audit: []AuditEntry{{Agent: NodeWriter, Output: draft, At: time.Now()}},
		},
	}
}

// criticNode reviews the draft, bumps the revision counter, and routes
// the session: approval or the revision ceiling ends it, anything else
// goes back through the reviser.
type criticNode struct {
	gen *generator
}

func (n *criticNode) Run(ctx context.Context, s SessionState) flow.NodeResult[SessionState] {
	n.gen.say("---AGENT: CRITIC---")

	critique, err := n.gen.generate(ctx, NodeCritic, fmt.Sprintf(criticPrompt, s.Draft))
	if err != nil {
		return flow.NodeResult[SessionState]{Err: err}
	}

	delta := SessionState{
		Critique:       critique,
		RevisionNumber: s.RevisionNumber + 1,
		Audit:          []AuditEntry{{Agent: NodeCritic, Output: critique, At: time.Now()}},
	}

	// Decide against the merged state, exactly what the engine will
	// hold after this node's delta is reduced.
	updated := ReduceSession(s, delta)
	decision := DecideNext(updated)

	n.gen.say("---CRITIC'S VERDICT---")
	switch {
	case decision == DecisionEnd && updated.RevisionNumber > RevisionCeiling:
		n.gen.say("-> Reached revision limit.")
	case decision == DecisionEnd:
		n.gen.say("-> Report is approved.")
	default:
		n.gen.say("-> Report needs revision.")
	}

	n.gen.emit(emit.Event{
		RunID:  n.gen.runID,
		NodeID: NodeCritic,
		Msg:    "routing_decision",
		Meta: map[string]interface{}{
			"decision": decision,
			"revision": updated.RevisionNumber,
		},
	})

	route := flow.Goto(NodeReviser)
	if decision == DecisionEnd {
		route = flow.Stop()
	}

	return flow.NodeResult[SessionState]{Delta: delta, Route: route}
}

// reviserNode rewrites the draft according to the critique and sends
// it straight back to the critic.
type reviserNode struct {
	gen *generator
}

func (n *reviserNode) Run(ctx context.Context, s SessionState) flow.NodeResult[SessionState] {
	n.gen.say("---AGENT: REVISER---")

	revised, err := n.gen.generate(ctx, NodeReviser, fmt.Sprintf(reviserPrompt, s.Draft, s.Critique))
	if err != nil {
		return flow.NodeResult[SessionState]{Err: err}
	}

	return flow.NodeResult[SessionState]{
		Delta: SessionState{
			Draft: revised,
			Audit: []AuditEntry{{Agent: NodeReviser, Output: revised, At: time.Now()}},
		},
		Route: flow.Goto(NodeCritic),
	}
}
