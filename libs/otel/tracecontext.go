package otelx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// TraceContext is the W3C trace context of a span in storable form. The
// outbox keeps one per row so the publish span joins the request's trace.
type TraceContext struct {
	Parent string
	State  string
}

// CaptureTraceContext serialises the span context carried by ctx, if any.
func CaptureTraceContext(ctx context.Context) TraceContext {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return TraceContext{Parent: carrier.Get("traceparent"), State: carrier.Get("tracestate")}
}

func (t TraceContext) Empty() bool {
	return t.Parent == ""
}

// Attach returns ctx carrying t as the remote parent. An empty t leaves ctx
// unchanged.
func (t TraceContext) Attach(ctx context.Context) context.Context {
	if t.Empty() {
		return ctx
	}
	carrier := propagation.MapCarrier{"traceparent": t.Parent}
	if t.State != "" {
		carrier["tracestate"] = t.State
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
