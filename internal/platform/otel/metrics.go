package otel

import (
	"context"
	"net/http"
	"time"

	"requestid-middleware/internal/platform/config"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMetricsPrometheus wires an OTEL MeterProvider backed by a dedicated
// Prometheus registry. It returns the /metrics handler and a shutdown function.
func InitMetricsPrometheus(
	ctx context.Context,
	serviceName string,
	extraAttrs ...attribute.KeyValue,
) (http.Handler, ShutdownFn, error) {
	res, err := newResource(ctx, serviceName, extraAttrs...)
	if err != nil {
		return nil, nil, err
	}

	reg := prom.NewRegistry()
	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	exp, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exp),
	)
	otel.SetMeterProvider(mp)
	if err := runtime.Start(
		runtime.WithMinimumReadMemStatsInterval(10 * time.Second),
	); err != nil {
		_ = mp.Shutdown(ctx)
		return nil, nil, err
	}

	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), mp.Shutdown, nil
}

// Setup initializes tracing and metrics together. The returned shutdown
// flushes both providers.
func Setup(ctx context.Context, serviceName string, cfg config.OTELConfig, extraAttrs ...attribute.KeyValue) (http.Handler, ShutdownFn, error) {
	shutdownTrace, err := Init(ctx, serviceName, cfg, extraAttrs...)
	if err != nil {
		return nil, nil, err
	}
	metricsH, shutdownMetrics, err := InitMetricsPrometheus(ctx, serviceName, extraAttrs...)
	if err != nil {
		_ = shutdownTrace(context.Background())
		return nil, nil, err
	}
	return metricsH, joinShutdown(shutdownMetrics, shutdownTrace), nil
}
