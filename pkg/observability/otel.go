package observability

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope used for loader spans.
const TracerName = "github.com/platinummonkey/plugload"

// Span attribute keys set by loaders.
const (
	AttrLoader   = attribute.Key("plugload.loader")
	AttrPlugin   = attribute.Key("plugload.plugin")
	AttrLocation = attribute.Key("plugload.location")
	AttrFound    = attribute.Key("plugload.found")
)

// Tracer returns the loader tracer from tp, falling back to the global
// provider when tp is nil. With no SDK installed the global provider is a
// no-op, so spans cost nothing.
func Tracer(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(TracerName)
}

// WithTraceContext adds the trace and span ids of the span in ctx to entry.
func WithTraceContext(ctx context.Context, entry *logrus.Entry) *logrus.Entry {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return entry
	}

	spanCtx := span.SpanContext()
	return entry.WithFields(logrus.Fields{
		"trace_id": spanCtx.TraceID().String(),
		"span_id":  spanCtx.SpanID().String(),
	})
}
