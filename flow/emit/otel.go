package emit

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter turns events into OpenTelemetry spans.
//
// Each event becomes a short span named after event.Msg, carrying the
// run/step/node identity plus the event's Meta fields as attributes
// under the "draftloop" namespace. An "error" Meta entry marks the
// span as failed.
//
// Wire it up with an SDK tracer provider:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//	emitter := emit.NewOTelEmitter(otel.Tracer("draftloop"))
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter creates an OTelEmitter over the given tracer.
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit records the event as an immediately-ended span. Events mark
// points in time, not durations; when a "duration_ms" Meta entry is
// present it is recorded as an attribute rather than as span length.
func (o *OTelEmitter) Emit(event Event) {
	ctx := context.Background()
	_, span := o.tracer.Start(ctx, event.Msg)
	defer span.End()

	o.addStandardAttributes(span, event)
	o.addMetaAttributes(span, event.Meta)

	if errText, ok := event.Meta["error"].(string); ok {
		span.SetStatus(codes.Error, errText)
		span.RecordError(fmt.Errorf("%s", errText))
	}
}

// EmitBatch records several events under one context, letting the span
// processor batch the export. Useful when draining a BufferedEmitter
// into a trace backend after a run.
func (o *OTelEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, event := range events {
		_, span := o.tracer.Start(ctx, event.Msg)

		o.addStandardAttributes(span, event)
		o.addMetaAttributes(span, event.Meta)

		if errText, ok := event.Meta["error"].(string); ok {
			span.SetStatus(codes.Error, errText)
			span.RecordError(fmt.Errorf("%s", errText))
		}

		span.End()
	}
	return nil
}

// Flush forces export of buffered spans. Call before shutdown so the
// final routing decisions reach the backend. No-op when the installed
// provider does not support flushing.
func (o *OTelEmitter) Flush(ctx context.Context) error {
	tp := otel.GetTracerProvider()

	type flusher interface {
		ForceFlush(context.Context) error
	}
	if f, ok := tp.(flusher); ok {
		return f.ForceFlush(ctx)
	}
	return nil
}

func (o *OTelEmitter) addStandardAttributes(span trace.Span, event Event) {
	span.SetAttributes(
		attribute.String("draftloop.run_id", event.RunID),
		attribute.Int("draftloop.step", event.Step),
		attribute.String("draftloop.node_id", event.NodeID),
	)
}

// addMetaAttributes converts Meta entries to span attributes. LLM
// usage keys map to namespaced attribute names so trace backends can
// aggregate cost across runs.
func (o *OTelEmitter) addMetaAttributes(span trace.Span, meta map[string]interface{}) {
	if meta == nil {
		return
	}

	for key, value := range meta {
		attrKey := key
		switch key {
		case "tokens_in":
			attrKey = "draftloop.llm.tokens_in"
		case "tokens_out":
			attrKey = "draftloop.llm.tokens_out"
		case "cost_usd":
			attrKey = "draftloop.llm.cost_usd"
		case "model":
			attrKey = "draftloop.llm.model"
		case "latency_ms", "duration_ms":
			attrKey = "draftloop.node." + key
		case "decision":
			attrKey = "draftloop.decision"
		case "revision":
			attrKey = "draftloop.revision"
		case "next_node":
			attrKey = "draftloop.next_node"
		}

		switch v := value.(type) {
		case string:
			span.SetAttributes(attribute.String(attrKey, v))
		case int:
			span.SetAttributes(attribute.Int(attrKey, v))
		case int64:
			span.SetAttributes(attribute.Int64(attrKey, v))
		case float64:
			span.SetAttributes(attribute.Float64(attrKey, v))
		case bool:
			span.SetAttributes(attribute.Bool(attrKey, v))
		case time.Duration:
			span.SetAttributes(attribute.Int64(attrKey, int64(v/time.Millisecond)))
		default:
			span.SetAttributes(attribute.String(attrKey, fmt.Sprintf("%v", v)))
		}
	}
}
