package metrics

import (
	"context"
	"testing"

	"requestid-middleware/internal/pipeline"
	"requestid-middleware/internal/requestid"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, r *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := r.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect err=%v", err)
	}
	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				out[m.Name] += dp.Value
			}
		}
	}
	return out
}

func TestStamp_CountsGeneratedAndReused(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	s, err := NewStampWithMeter(mp.Meter("test"), "stampd", "sequential")
	if err != nil {
		t.Fatalf("NewStampWithMeter err=%v", err)
	}

	h := requestid.TrySetSequential(requestid.NewCounter(), requestid.WithObserver(s))(pipeline.Chain{}.Then(nil))
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := h.Handle(ctx, pipeline.MapEnv{}); err != nil {
			t.Fatal(err)
		}
	}
	if err := h.Handle(ctx, pipeline.MapEnv{requestid.Key: "upstream"}); err != nil {
		t.Fatal(err)
	}

	got := collect(t, reader)
	if got["requestid.generated"] != 3 {
		t.Fatalf("generated=%d want 3", got["requestid.generated"])
	}
	if got["requestid.reused"] != 1 {
		t.Fatalf("reused=%d want 1", got["requestid.reused"])
	}
}

func TestStamp_NilIsNoop(t *testing.T) {
	var s *Stamp
	s.Stamped(context.Background(), "x", true)
}
