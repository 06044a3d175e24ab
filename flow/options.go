package flow

import "time"

// Options configures engine execution behavior.
//
// Zero values are valid; the engine applies no limits it was not
// asked for. Options are normally set through the functional Option
// arguments to New.
type Options struct {
	// MaxSteps limits the total number of node executions in a run.
	// Zero means no limit. Workflows with loops should always set
	// this so a miswired exit condition cannot spin forever.
	MaxSteps int

	// DefaultNodeTimeout bounds each node's execution time. Zero
	// means nodes run without a deadline of their own.
	DefaultNodeTimeout time.Duration

	// RunWallClockBudget bounds the total run duration. When
	// exceeded, Run returns the context error. Zero disables the
	// budget.
	RunWallClockBudget time.Duration

	// Metrics, when non-nil, receives per-step observations.
	Metrics *PrometheusMetrics
}

// Option is a functional option for configuring an Engine.
//
// Example:
//
//	engine := flow.New(reducer, st, emitter,
//	    flow.WithMaxSteps(25),
//	    flow.WithDefaultNodeTimeout(2*time.Minute),
//	)
type Option func(*Options)

// WithMaxSteps limits the run to n node executions.
//
// For a looping workflow a reasonable value is the linear depth times
// the maximum expected iterations. When the limit is hit, Run returns
// an EngineError with code MAX_STEPS_EXCEEDED.
func WithMaxSteps(n int) Option {
	return func(o *Options) {
		o.MaxSteps = n
	}
}

// WithDefaultNodeTimeout bounds every node execution to d.
//
// A node that exceeds the deadline fails the run with an EngineError
// with code NODE_TIMEOUT.
func WithDefaultNodeTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.DefaultNodeTimeout = d
	}
}

// WithRunWallClockBudget bounds the whole run to d.
//
// The budget is enforced through the run context, so a run that
// exceeds it returns context.DeadlineExceeded.
func WithRunWallClockBudget(d time.Duration) Option {
	return func(o *Options) {
		o.RunWallClockBudget = d
	}
}

// WithMetrics attaches a Prometheus metrics collector to the engine.
//
// The engine records step counts and latencies; domain code can share
// the same collector for its own observations.
//
//	registry := prometheus.NewRegistry()
//	metrics := flow.NewPrometheusMetrics(registry)
//	engine := flow.New(reducer, st, emitter, flow.WithMetrics(metrics))
func WithMetrics(metrics *PrometheusMetrics) Option {
	return func(o *Options) {
		o.Metrics = metrics
	}
}
