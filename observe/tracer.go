package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Tracer wraps OpenTelemetry tracing with health-check span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartProbeSpan starts a span for one probe execution.
	StartProbeSpan(ctx context.Context, probe string) (context.Context, trace.Span)

	// StartSummarySpan starts a span for one summary computation.
	StartSummarySpan(ctx context.Context) (context.Context, trace.Span)

	// EndSpan ends the span, recording the resulting status and any error.
	EndSpan(span trace.Span, status string, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartProbeSpan starts a span named health.check.<probe>.
func (t *tracerImpl) StartProbeSpan(ctx context.Context, probe string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "health.check."+probe,
		trace.WithAttributes(attribute.String("probe", probe)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartSummarySpan starts a span for the whole summary computation.
func (t *tracerImpl) StartSummarySpan(ctx context.Context) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "health.summary",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span and records the status and error if present.
func (t *tracerImpl) EndSpan(span trace.Span, status string, err error) {
	span.SetAttributes(attribute.String("status", status))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// NopTracer creates a no-op tracer.
func NopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartProbeSpan(ctx context.Context, probe string) (context.Context, trace.Span) {
	return t.noop.Start(ctx, "health.check."+probe)
}

func (t *noopTracer) StartSummarySpan(ctx context.Context) (context.Context, trace.Span) {
	return t.noop.Start(ctx, "health.summary")
}

func (t *noopTracer) EndSpan(span trace.Span, _ string, _ error) {
	span.End()
}
