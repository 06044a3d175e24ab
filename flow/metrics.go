package flow

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics collects execution metrics for monitoring revision
// sessions in production.
//
// Metrics exposed (all namespaced "draftloop"):
//
//	steps_total (counter)        nodes executed, labels: node, status
//	step_latency_ms (histogram)  node execution duration, labels: node, status
//	llm_requests_total (counter) model calls, labels: model, status
//	llm_tokens_total (counter)   token usage, labels: model, direction
//	sessions_total (counter)     finished sessions, labels: outcome
//	revision_passes (histogram)  revision loop iterations per session
//
// Session outcomes: "approved" (critic accepted the draft), "ceiling"
// (revision limit reached), "failed" (run aborted on error).
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := flow.NewPrometheusMetrics(registry)
//	engine := flow.New(reducer, st, emitter, flow.WithMetrics(metrics))
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
type PrometheusMetrics struct {
	stepsTotal     *prometheus.CounterVec
	stepLatency    *prometheus.HistogramVec
	llmRequests    *prometheus.CounterVec
	llmTokens      *prometheus.CounterVec
	sessionsTotal  *prometheus.CounterVec
	revisionPasses prometheus.Histogram

	registry prometheus.Registerer

	mu      sync.RWMutex
	enabled bool
}

// NewPrometheusMetrics creates and registers all session metrics with
// the provided registry. A nil registry falls back to the global
// default registerer; a dedicated registry is recommended so tests and
// multiple engines stay isolated.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	pm := &PrometheusMetrics{
		registry: registry,
		enabled:  true,
	}

	pm.stepsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "draftloop",
		Name:      "steps_total",
		Help:      "Node executions by node and outcome",
	}, []string{"node", "status"}) // status: success, error, timeout

	pm.stepLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "draftloop",
		Name:      "step_latency_ms",
		Help:      "Node execution duration in milliseconds",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
	}, []string{"node", "status"})

	pm.llmRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "draftloop",
		Name:      "llm_requests_total",
		Help:      "LLM API calls by model and outcome",
	}, []string{"model", "status"}) // status: success, error

	pm.llmTokens = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "draftloop",
		Name:      "llm_tokens_total",
		Help:      "LLM tokens consumed by model and direction",
	}, []string{"model", "direction"}) // direction: input, output

	pm.sessionsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "draftloop",
		Name:      "sessions_total",
		Help:      "Completed revision sessions by outcome",
	}, []string{"outcome"}) // outcome: approved, ceiling, failed

	pm.revisionPasses = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: "draftloop",
		Name:      "revision_passes",
		Help:      "Revision loop iterations per session",
		Buckets:   []float64{0, 1, 2, 3, 4, 5},
	})

	return pm
}

// RecordStep records one node execution.
func (pm *PrometheusMetrics) RecordStep(node, status string, latency time.Duration) {
	if !pm.recording() {
		return
	}

	pm.stepsTotal.WithLabelValues(node, status).Inc()
	pm.stepLatency.WithLabelValues(node, status).Observe(float64(latency.Milliseconds()))
}

// RecordLLMRequest records one model call with its token usage.
func (pm *PrometheusMetrics) RecordLLMRequest(model, status string, inputTokens, outputTokens int64) {
	if !pm.recording() {
		return
	}

	pm.llmRequests.WithLabelValues(model, status).Inc()
	pm.llmTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	pm.llmTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
}

// RecordSessionOutcome records a finished session.
func (pm *PrometheusMetrics) RecordSessionOutcome(outcome string) {
	if !pm.recording() {
		return
	}

	pm.sessionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRevisionPasses records how many revision passes a session took.
func (pm *PrometheusMetrics) ObserveRevisionPasses(passes int) {
	if !pm.recording() {
		return
	}

	pm.revisionPasses.Observe(float64(passes))
}

// Disable suspends metric recording. Useful in tests.
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable resumes metric recording after Disable.
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}

func (pm *PrometheusMetrics) recording() bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.enabled
}
