package amqpx

import (
	"context"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestHeaderString(t *testing.T) {
	headers := amqp.Table{
		"event_id":    "evt-1",
		"traceparent": []byte("00-abc-def-01"),
		"attempt":     int32(2),
	}
	if got := HeaderString(headers, "event_id"); got != "evt-1" {
		t.Fatalf("unexpected event_id %q", got)
	}
	if got := HeaderString(headers, "traceparent"); got != "00-abc-def-01" {
		t.Fatalf("unexpected traceparent %q", got)
	}
	if got := HeaderString(headers, "attempt"); got != "2" {
		t.Fatalf("unexpected attempt %q", got)
	}
	if got := HeaderString(headers, "missing"); got != "" {
		t.Fatalf("expected empty for missing header, got %q", got)
	}
}

func TestTraceHeadersRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled, Remote: true})
	ctx := trace.ContextWithRemoteSpanContext(context.Background(), sc)

	headers := InjectTraceHeaders(ctx, map[string]string{"event_id": "evt-1"})
	if headers["traceparent"] == "" || headers["event_id"] != "evt-1" {
		t.Fatalf("unexpected headers %v", headers)
	}

	table := amqp.Table{}
	for k, v := range headers {
		table[k] = v
	}
	got := trace.SpanContextFromContext(ExtractTraceContext(context.Background(), table))
	if got.TraceID() != traceID {
		t.Fatalf("expected trace id %s, got %s", traceID, got.TraceID())
	}
}
