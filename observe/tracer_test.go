package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordedTracer() (*tracetest.SpanRecorder, Tracer) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return recorder, NewTracer(tp.Tracer("test"))
}

func spanAttrs(s sdktrace.ReadOnlySpan) map[string]attribute.Value {
	attrs := make(map[string]attribute.Value)
	for _, a := range s.Attributes() {
		attrs[string(a.Key)] = a.Value
	}
	return attrs
}

func TestTracer_ProbeSpan(t *testing.T) {
	recorder, tr := newRecordedTracer()

	_, span := tr.StartProbeSpan(context.Background(), "memory")
	tr.EndSpan(span, "healthy", nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]

	if s.Name() != "health.check.memory" {
		t.Errorf("span name = %q, want health.check.memory", s.Name())
	}
	attrs := spanAttrs(s)
	if v, ok := attrs["probe"]; !ok || v.AsString() != "memory" {
		t.Errorf("probe attribute = %v, want memory", v)
	}
	if v, ok := attrs["status"]; !ok || v.AsString() != "healthy" {
		t.Errorf("status attribute = %v, want healthy", v)
	}
	if s.Status().Code != codes.Ok {
		t.Errorf("span status = %v, want Ok", s.Status().Code)
	}
}

func TestTracer_SummarySpan(t *testing.T) {
	recorder, tr := newRecordedTracer()

	_, span := tr.StartSummarySpan(context.Background())
	tr.EndSpan(span, "warning", nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "health.summary" {
		t.Errorf("span name = %q, want health.summary", spans[0].Name())
	}
}

func TestTracer_EndSpanRecordsError(t *testing.T) {
	recorder, tr := newRecordedTracer()

	probeErr := errors.New("dial tcp: connection refused")
	_, span := tr.StartProbeSpan(context.Background(), "api")
	tr.EndSpan(span, "critical", probeErr)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]

	if s.Status().Code != codes.Error {
		t.Errorf("span status = %v, want Error", s.Status().Code)
	}
	if s.Status().Description != probeErr.Error() {
		t.Errorf("status description = %q, want the error text", s.Status().Description)
	}

	var recorded bool
	for _, ev := range s.Events() {
		if ev.Name == "exception" {
			recorded = true
		}
	}
	if !recorded {
		t.Error("error not recorded as span event")
	}
}

func TestNopTracer(t *testing.T) {
	tr := NopTracer()

	_, span := tr.StartProbeSpan(context.Background(), "memory")
	tr.EndSpan(span, "healthy", nil)

	_, span = tr.StartSummarySpan(context.Background())
	tr.EndSpan(span, "unknown", errors.New("ignored"))
}
