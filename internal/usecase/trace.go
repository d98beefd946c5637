package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var usecaseTracer = otel.Tracer("courtsync/internal/usecase")

const courtIDKey = attribute.Key("courtsync.court_id")

// startUsecaseSpan opens a child span only when the caller is already traced.
// Poll ticks run on a background context, so they never create root spans.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	parent := trace.SpanFromContext(ctx)
	if name == "" || !parent.SpanContext().IsValid() {
		return ctx, parent
	}
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func courtAttr(id int) attribute.KeyValue {
	return courtIDKey.Int(id)
}
