package emit

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestTracer(t *testing.T) (*tracetest.InMemoryExporter, *OTelEmitter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, NewOTelEmitter(otel.Tracer("draftloop-test"))
}

func TestOTelEmitter_Emit(t *testing.T) {
	exporter, emitter := newTestTracer(t)

	emitter.Emit(Event{
		RunID:  "report-001",
		Step:   4,
		NodeID: "critic",
		Msg:    "routing_decision",
		Meta: map[string]interface{}{
			"decision": "revise",
			"revision": 1,
		},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]

	if span.Name != "routing_decision" {
		t.Errorf("span name = %q, want %q", span.Name, "routing_decision")
	}

	attrs := attributeMap(span.Attributes)
	if got := attrs["draftloop.run_id"]; got != "report-001" {
		t.Errorf("run_id = %v, want %q", got, "report-001")
	}
	if got := attrs["draftloop.step"]; got != int64(4) {
		t.Errorf("step = %v, want %d", got, 4)
	}
	if got := attrs["draftloop.node_id"]; got != "critic" {
		t.Errorf("node_id = %v, want %q", got, "critic")
	}
	if got := attrs["draftloop.decision"]; got != "revise" {
		t.Errorf("decision = %v, want %q", got, "revise")
	}
	if got := attrs["draftloop.revision"]; got != int64(1) {
		t.Errorf("revision = %v, want %d", got, 1)
	}

	if !span.EndTime.After(span.StartTime) {
		t.Error("span was not ended")
	}
}

func TestOTelEmitter_LLMUsageAttributes(t *testing.T) {
	exporter, emitter := newTestTracer(t)

	emitter.Emit(Event{
		RunID:  "report-001",
		Step:   2,
		NodeID: "researcher",
		Msg:    "llm_call",
		Meta: map[string]interface{}{
			"model":      "gemini-1.5-flash",
			"tokens_in":  120,
			"tokens_out": 512,
			"cost_usd":   0.000163,
		},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	attrs := attributeMap(spans[0].Attributes)
	if got := attrs["draftloop.llm.model"]; got != "gemini-1.5-flash" {
		t.Errorf("model = %v, want gemini-1.5-flash", got)
	}
	if got := attrs["draftloop.llm.tokens_in"]; got != int64(120) {
		t.Errorf("tokens_in = %v, want 120", got)
	}
	if got := attrs["draftloop.llm.tokens_out"]; got != int64(512) {
		t.Errorf("tokens_out = %v, want 512", got)
	}
	if got := attrs["draftloop.llm.cost_usd"]; got != 0.000163 {
		t.Errorf("cost_usd = %v, want 0.000163", got)
	}
}

func TestOTelEmitter_ErrorStatus(t *testing.T) {
	exporter, emitter := newTestTracer(t)

	emitter.Emit(Event{
		RunID:  "report-001",
		Step:   3,
		NodeID: "writer",
		Msg:    "error",
		Meta: map[string]interface{}{
			"error": "model call failed",
		},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]

	if span.Status.Code != codes.Error {
		t.Errorf("status code = %v, want %v", span.Status.Code, codes.Error)
	}
	if span.Status.Description != "model call failed" {
		t.Errorf("status description = %q, want %q", span.Status.Description, "model call failed")
	}
	if len(span.Events) == 0 {
		t.Error("expected recorded error event, got none")
	}
}

func TestOTelEmitter_EmitBatch(t *testing.T) {
	exporter, emitter := newTestTracer(t)

	events := []Event{
		{RunID: "report-001", Step: 1, NodeID: "planner", Msg: "node_start"},
		{RunID: "report-001", Step: 1, NodeID: "planner", Msg: "node_complete"},
		{RunID: "report-001", Step: 2, NodeID: "researcher", Msg: "node_start"},
	}

	if err := emitter.EmitBatch(context.Background(), events); err != nil {
		t.Fatalf("EmitBatch failed: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}

	wantNames := []string{"node_start", "node_complete", "node_start"}
	for i, span := range spans {
		if span.Name != wantNames[i] {
			t.Errorf("span[%d] name = %q, want %q", i, span.Name, wantNames[i])
		}
	}
}

func TestOTelEmitter_Flush(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	emitter := NewOTelEmitter(otel.Tracer("draftloop-test"))
	emitter.Emit(Event{RunID: "report-001", Step: 1, NodeID: "planner", Msg: "node_start"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := emitter.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if got := len(exporter.GetSpans()); got != 1 {
		t.Errorf("expected 1 span after flush, got %d", got)
	}
}

func TestOTelEmitter_InterfaceContract(_ *testing.T) {
	var _ Emitter = NewOTelEmitter(otel.Tracer("contract"))
}

func attributeMap(attrs []attribute.KeyValue) map[string]interface{} {
	m := make(map[string]interface{})
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value.AsInterface()
	}
	return m
}
