package workflow

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/draftloop-go/flow"
	"github.com/dshills/draftloop-go/flow/emit"
	"github.com/dshills/draftloop-go/flow/model"
	"github.com/dshills/draftloop-go/flow/store"
	"github.com/dshills/draftloop-go/flow/tool"
)

// DefaultTask is the demo task used when the caller provides none.
const DefaultTask = "Analyze the impact of remote work on the tech industry's productivity and employee well-being. Write a detailed report."

// defaultTemperature matches the original pipeline's sampling setting.
const defaultTemperature = 0.7

// defaultMaxSteps bounds a session. The longest legitimate session is
// ten steps (three linear agents plus four critic passes with three
// revisions between them), so this only trips on routing bugs.
const defaultMaxSteps = 25

// Config configures a Pipeline.
//
// Model is required; everything else has a usable zero value.
type Config struct {
	// Model generates for every agent in the session.
	Model model.ChatModel

	// ModelName labels cost and metrics records, e.g.
	// "gemini-1.5-flash".
	ModelName string

	// Temperature overrides the sampling temperature. Nil uses 0.7.
	Temperature *float64

	// Out receives agent banners and progress lines. Defaults to
	// os.Stdout.
	Out io.Writer

	// Store persists session state. Defaults to an in-memory store.
	Store store.Store[SessionState]

	// Emitter receives observability events. Nil disables them.
	Emitter emit.Emitter

	// Costs, when set, accumulates token usage and dollar cost.
	Costs *flow.CostTracker

	// Metrics, when set, records Prometheus metrics.
	Metrics *flow.PrometheusMetrics

	// ResearchSources lists URLs the researcher fetches for
	// background material. Empty disables fetching.
	ResearchSources []string

	// Fetcher performs the research fetches. Nil with sources
	// configured gets a default HTTP tool.
	Fetcher tool.Tool

	// MaxSteps bounds the number of node executions per session.
	// Zero uses the default.
	MaxSteps int

	// NodeTimeout bounds each agent execution. Zero means no limit.
	NodeTimeout time.Duration

	// RunBudget bounds the whole session wall-clock. Zero means no
	// limit.
	RunBudget time.Duration
}

// Pipeline is a configured multi-agent revision session runner.
//
// Construct once with NewPipeline, then Run sessions against it.
// Sessions execute sequentially; a Pipeline is not safe for concurrent
// runs.
type Pipeline struct {
	engine *flow.Engine[SessionState]
	gen    *generator
	costs  *flow.CostTracker
	mets   *flow.PrometheusMetrics
	out    io.Writer
}

// NewPipeline assembles the agent graph.
//
// Topology: planner, researcher, and writer advance linearly by edges;
// the critic routes explicitly (approval or revision ceiling ends the
// session, otherwise the reviser runs and returns to the critic).
func NewPipeline(cfg Config) (*Pipeline, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("workflow: model is required")
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Store == nil {
		cfg.Store = store.NewMemStore[SessionState]()
	}
	if cfg.Temperature == nil {
		cfg.Temperature = model.Temp(defaultTemperature)
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = defaultMaxSteps
	}
	if cfg.Fetcher == nil && len(cfg.ResearchSources) > 0 {
		cfg.Fetcher = tool.NewHTTPTool()
	}

	gen := &generator{
		model:       cfg.Model,
		modelName:   cfg.ModelName,
		temperature: cfg.Temperature,
		costs:       cfg.Costs,
		metrics:     cfg.Metrics,
		emitter:     cfg.Emitter,
		out:         cfg.Out,
	}

	engine := flow.New(ReduceSession, cfg.Store, cfg.Emitter,
		flow.WithMaxSteps(cfg.MaxSteps),
		flow.WithDefaultNodeTimeout(cfg.NodeTimeout),
		flow.WithRunWallClockBudget(cfg.RunBudget),
		flow.WithMetrics(cfg.Metrics),
	)

	nodes := map[string]flow.Node[SessionState]{
		NodePlanner:    &plannerNode{gen: gen},
		NodeResearcher: &researcherNode{gen: gen, fetcher: cfg.Fetcher, sources: cfg.ResearchSources},
		NodeWriter:     &writerNode{gen: gen},
		NodeCritic:     &criticNode{gen: gen},
		NodeReviser:    &reviserNode{gen: gen},
	}
	for id, node := range nodes {
		if err := engine.Add(id, node); err != nil {
			return nil, err
		}
	}

	if err := engine.StartAt(NodePlanner); err != nil {
		return nil, err
	}
	_ = engine.Connect(NodePlanner, NodeResearcher, nil)
	_ = engine.Connect(NodeResearcher, NodeWriter, nil)
	_ = engine.Connect(NodeWriter, NodeCritic, nil)

	return &Pipeline{
		engine: engine,
		gen:    gen,
		costs:  cfg.Costs,
		mets:   cfg.Metrics,
		out:    cfg.Out,
	}, nil
}

// Run executes one multi-agent session and returns the final state.
//
// An empty runID gets a generated UUID. Agent failures are fatal and
// abort the session with the node's error.
func (p *Pipeline) Run(ctx context.Context, runID, task string) (SessionState, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	if task == "" {
		task = DefaultTask
	}
	p.gen.runID = runID

	p.gen.say("🚀 Starting the Multi-Agent System...")

	final, err := p.engine.Run(ctx, runID, SessionState{Task: task})
	p.recordOutcome(final, err)
	return final, err
}

// recordOutcome translates a finished session into metrics.
func (p *Pipeline) recordOutcome(final SessionState, err error) {
	if p.mets == nil {
		return
	}

	switch {
	case err != nil:
		p.mets.RecordSessionOutcome("failed")
	case final.RevisionNumber > RevisionCeiling:
		p.mets.RecordSessionOutcome("ceiling")
	default:
		p.mets.RecordSessionOutcome("approved")
	}
	if err == nil {
		p.mets.ObserveRevisionPasses(final.RevisionNumber)
	}
}

// SaveCheckpoint snapshots a finished or interrupted session so it can
// be resumed or branched later.
func (p *Pipeline) SaveCheckpoint(ctx context.Context, runID, checkpointID string) error {
	return p.engine.SaveCheckpoint(ctx, runID, checkpointID)
}

// Resume continues a checkpointed session under a new run ID, starting
// at the named agent (one of the Node* constants).
func (p *Pipeline) Resume(ctx context.Context, checkpointID, newRunID, startNode string) (SessionState, error) {
	if newRunID == "" {
		newRunID = uuid.NewString()
	}
	p.gen.runID = newRunID

	final, err := p.engine.ResumeFromCheckpoint(ctx, checkpointID, newRunID, startNode)
	p.recordOutcome(final, err)
	return final, err
}

// RunComparison runs the full evaluation: the multi-agent session, the
// single-agent baseline, and the judge.
//
// Any generation failure aborts the comparison; a judge reply that
// cannot be parsed degrades to sentinel scores.
func (p *Pipeline) RunComparison(ctx context.Context, runID, task string) (Comparison, error) {
	if task == "" {
		task = DefaultTask
	}

	final, err := p.Run(ctx, runID, task)
	if err != nil {
		return Comparison{}, err
	}

	single, err := p.Baseline(ctx, task)
	if err != nil {
		return Comparison{}, err
	}

	scores, err := p.Score(ctx, task, single, final.Draft)
	if err != nil {
		return Comparison{}, err
	}

	return Comparison{
		Task:         task,
		SingleReport: single,
		MultiReport:  final.Draft,
		Scores:       scores,
		Session:      final,
		Costs:        p.costs,
	}, nil
}
