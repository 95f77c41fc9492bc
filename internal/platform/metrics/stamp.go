package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Stamp counts request id stamping decisions. It implements requestid.Observer.
type Stamp struct {
	generated metric.Int64Counter
	reused    metric.Int64Counter
	attrs     metric.MeasurementOption
}

// NewStamp registers the counters on the global MeterProvider.
func NewStamp(service, strategy string) (*Stamp, error) {
	return NewStampWithMeter(otel.Meter("requestid-middleware/"+service), service, strategy)
}

func NewStampWithMeter(m metric.Meter, service, strategy string) (*Stamp, error) {
	generated, err := m.Int64Counter(
		"requestid.generated",
		metric.WithDescription("Request ids generated because none was present"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	reused, err := m.Int64Counter(
		"requestid.reused",
		metric.WithDescription("Requests that already carried a request id"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &Stamp{
		generated: generated,
		reused:    reused,
		attrs: metric.WithAttributes(
			attribute.String("service.name", service),
			attribute.String("requestid.strategy", strategy),
		),
	}, nil
}

func (s *Stamp) Stamped(ctx context.Context, _ string, generated bool) {
	if s == nil {
		return
	}
	if generated {
		s.generated.Add(ctx, 1, s.attrs)
		return
	}
	s.reused.Add(ctx, 1, s.attrs)
}
