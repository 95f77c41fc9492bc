package httpmw

import (
	"net/http"
	"time"

	"requestid-middleware/internal/pipeline"

	"go.uber.org/zap"
)

// EdgePolicy defines the default middleware policy for public-facing services.
type EdgePolicy struct {
	// ServiceName is used for OpenTelemetry span names + access log fields.
	ServiceName string

	// RequestIDHeader is read for upstream ids and echoed on responses.
	RequestIDHeader string

	// Pipeline runs first inside the edge chain; it normally holds the
	// request id stamp. Nil means DefaultPipeline.
	Pipeline *pipeline.Builder

	// Timeout bounds total handler time.
	Timeout time.Duration

	// MaxInFlight limits concurrent requests processed by the server handler.
	MaxInFlight int

	// Outer is applied outside the default edge chain, even before tracing.
	Outer Chain

	// Leaf is applied closest to the business handler, inside the default edge chain.
	Leaf Chain
}

// DefaultEdge returns the default edge chain, excluding Wrap and leaf middleware.
func DefaultEdge(log *zap.Logger, p EdgePolicy) Chain {
	if p.Timeout <= 0 {
		p.Timeout = 30 * time.Second
	}
	if p.MaxInFlight <= 0 {
		p.MaxInFlight = 512
	}
	if p.RequestIDHeader == "" {
		p.RequestIDHeader = DefaultRequestIDHeader
	}
	if p.Pipeline == nil {
		p.Pipeline = DefaultPipeline(p.RequestIDHeader)
	}

	return Chain{
		Host(p.Pipeline, HostOptions{Header: p.RequestIDHeader, Log: log}),
		WithRecover(log),
		SecurityHeaders,
		WithTimeout(p.Timeout),
		WithInFlightLimit(p.MaxInFlight, log),
	}
}

// BuildEdgeHandler composes a policy-driven middleware stack around next.
//
// Final order (outer -> inner):
//
//	Outer..., Wrap, Host(Pipeline), Recover, SecurityHeaders, Timeout, InFlightLimit, Leaf..., next
func BuildEdgeHandler(log *zap.Logger, p EdgePolicy, next http.Handler) http.Handler {
	if p.ServiceName == "" {
		p.ServiceName = "service"
	}

	h := DefaultEdge(log, p).Append(p.Leaf...).Then(next)
	h = WithWrap(p.ServiceName, p.RequestIDHeader, log)(h)
	return p.Outer.Then(h)
}
