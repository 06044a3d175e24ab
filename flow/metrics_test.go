package flow

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// counterValue reads a counter from the registry by name and label set,
// returning 0 when no matching series exists.
func counterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			seriesLabels := make(map[string]string)
			for _, pair := range metric.GetLabel() {
				seriesLabels[pair.GetName()] = pair.GetValue()
			}
			matched := true
			for k, v := range labels {
				if seriesLabels[k] != v {
					matched = false
					break
				}
			}
			if matched {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

// histogramSampleCount reads a histogram's observation count by name
// and label set, returning 0 when no matching series exists.
func histogramSampleCount(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) uint64 {
	t.Helper()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			seriesLabels := make(map[string]string)
			for _, pair := range metric.GetLabel() {
				seriesLabels[pair.GetName()] = pair.GetValue()
			}
			matched := true
			for k, v := range labels {
				if seriesLabels[k] != v {
					matched = false
					break
				}
			}
			if matched {
				return metric.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func TestPrometheusMetrics_RecordStep(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	metrics.RecordStep("planner", "success", 12*time.Millisecond)
	metrics.RecordStep("planner", "success", 40*time.Millisecond)
	metrics.RecordStep("critic", "error", 5*time.Millisecond)

	got := counterValue(t, registry, "draftloop_steps_total", map[string]string{"node": "planner", "status": "success"})
	if got != 2 {
		t.Errorf("expected 2 planner successes, got %v", got)
	}

	got = counterValue(t, registry, "draftloop_steps_total", map[string]string{"node": "critic", "status": "error"})
	if got != 1 {
		t.Errorf("expected 1 critic error, got %v", got)
	}

	samples := histogramSampleCount(t, registry, "draftloop_step_latency_ms", map[string]string{"node": "planner", "status": "success"})
	if samples != 2 {
		t.Errorf("expected 2 latency observations, got %d", samples)
	}
}

func TestPrometheusMetrics_RecordLLMRequest(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	metrics.RecordLLMRequest("gemini-1.5-flash", "success", 1200, 450)
	metrics.RecordLLMRequest("gemini-1.5-flash", "success", 800, 300)
	metrics.RecordLLMRequest("gpt-4o", "error", 0, 0)

	requests := counterValue(t, registry, "draftloop_llm_requests_total", map[string]string{"model": "gemini-1.5-flash", "status": "success"})
	if requests != 2 {
		t.Errorf("expected 2 gemini requests, got %v", requests)
	}

	input := counterValue(t, registry, "draftloop_llm_tokens_total", map[string]string{"model": "gemini-1.5-flash", "direction": "input"})
	if input != 2000 {
		t.Errorf("expected 2000 input tokens, got %v", input)
	}

	output := counterValue(t, registry, "draftloop_llm_tokens_total", map[string]string{"model": "gemini-1.5-flash", "direction": "output"})
	if output != 750 {
		t.Errorf("expected 750 output tokens, got %v", output)
	}
}

func TestPrometheusMetrics_SessionOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	metrics.RecordSessionOutcome("approved")
	metrics.RecordSessionOutcome("approved")
	metrics.RecordSessionOutcome("ceiling")
	metrics.ObserveRevisionPasses(2)
	metrics.ObserveRevisionPasses(4)

	approved := counterValue(t, registry, "draftloop_sessions_total", map[string]string{"outcome": "approved"})
	if approved != 2 {
		t.Errorf("expected 2 approved sessions, got %v", approved)
	}

	ceiling := counterValue(t, registry, "draftloop_sessions_total", map[string]string{"outcome": "ceiling"})
	if ceiling != 1 {
		t.Errorf("expected 1 ceiling session, got %v", ceiling)
	}

	passes := histogramSampleCount(t, registry, "draftloop_revision_passes", nil)
	if passes != 2 {
		t.Errorf("expected 2 revision pass observations, got %d", passes)
	}
}

func TestPrometheusMetrics_DisableEnable(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	metrics.Disable()
	metrics.RecordStep("planner", "success", time.Millisecond)
	metrics.RecordSessionOutcome("approved")

	if got := counterValue(t, registry, "draftloop_steps_total", map[string]string{"node": "planner"}); got != 0 {
		t.Errorf("disabled metrics should not record, got %v", got)
	}

	metrics.Enable()
	metrics.RecordStep("planner", "success", time.Millisecond)

	if got := counterValue(t, registry, "draftloop_steps_total", map[string]string{"node": "planner"}); got != 1 {
		t.Errorf("expected 1 step after re-enable, got %v", got)
	}
}

func TestPrometheusMetrics_EngineIntegration(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	engine := createTestEngine(WithMetrics(metrics))
	_ = engine.Add("first", NodeFunc[TestState](func(ctx context.Context, s TestState) NodeResult[TestState] {
		return NodeResult[TestState]{Delta: TestState{Counter: 1}, Route: Goto("second")}
	}))
	_ = engine.Add("second", NodeFunc[TestState](func(ctx context.Context, s TestState) NodeResult[TestState] {
		return NodeResult[TestState]{Route: Stop()}
	}))
	_ = engine.StartAt("first")

	if _, err := engine.Run(context.Background(), "run-100", TestState{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	first := counterValue(t, registry, "draftloop_steps_total", map[string]string{"node": "first", "status": "success"})
	second := counterValue(t, registry, "draftloop_steps_total", map[string]string{"node": "second", "status": "success"})
	if first != 1 || second != 1 {
		t.Errorf("expected one success per node, got first=%v second=%v", first, second)
	}
}
