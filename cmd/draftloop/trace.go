package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// logSpanExporter writes finished spans to stderr as single lines.
// It keeps the -trace flag self-contained instead of requiring a
// collector endpoint.
type logSpanExporter struct{}

func (e *logSpanExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		duration := span.EndTime().Sub(span.StartTime())
		fmt.Fprintf(os.Stderr, "trace: %s %s status=%s\n",
			span.Name(), duration.Round(time.Microsecond), span.Status().Code)
	}
	return nil
}

func (e *logSpanExporter) Shutdown(context.Context) error { return nil }

// setupTracing installs a global tracer provider backed by the log
// exporter and returns the tracer plus a shutdown hook.
func setupTracing() (trace.Tracer, func()) {
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(&logSpanExporter{}),
	)
	otel.SetTracerProvider(provider)

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(ctx)
	}
	return otel.Tracer("draftloop"), shutdown
}
