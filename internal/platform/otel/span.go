package otel

import (
	"context"

	"requestid-middleware/internal/requestid"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RequestIDAttr is the span attribute carrying the stamped request id.
const RequestIDAttr = attribute.Key("request.id")

// SpanObserver annotates the active span with the request id and whether it
// was generated locally or supplied upstream.
func SpanObserver() requestid.Observer {
	return requestid.ObserverFunc(func(ctx context.Context, id string, generated bool) {
		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return
		}
		span.SetAttributes(
			RequestIDAttr.String(id),
			attribute.Bool("request.id.generated", generated),
		)
	})
}
