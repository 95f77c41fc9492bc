package main

import (
	"encoding/json"
	"net/http"

	"requestid-middleware/internal/pipeline"
	"requestid-middleware/internal/platform/config"
	"requestid-middleware/internal/platform/httpmw"
	"requestid-middleware/internal/platform/metrics"
	"requestid-middleware/internal/platform/otel"
	"requestid-middleware/internal/requestid"
)

type pipelines struct {
	http *pipeline.Builder
	grpc *pipeline.Builder
}

// newPipeline builds the HTTP and gRPC entry pipelines. Both stamp with the
// configured strategy and draw sequential ids from c.
func newPipeline(cfg *config.Config, c *requestid.Counter) (pipelines, error) {
	strategy, err := requestid.ParseStrategy(cfg.RequestID.Strategy)
	if err != nil {
		return pipelines{}, err
	}

	m, err := metrics.NewStamp(cfg.Service.Name, string(strategy))
	if err != nil {
		return pipelines{}, err
	}

	stamp, err := requestid.New(requestid.Config{
		Strategy: strategy,
		Prefix:   cfg.RequestID.Prefix,
	}, c, requestid.WithObserver(m), requestid.WithObserver(otel.SpanObserver()))
	if err != nil {
		return pipelines{}, err
	}

	use := func(mw pipeline.Middleware) pipeline.Factory {
		return func(pipeline.Properties) pipeline.Middleware { return mw }
	}

	return pipelines{
		http: pipeline.NewBuilder(pipeline.Properties{"host.protocol": "http"}).
			Use(use(stamp)).
			Use(use(httpmw.EchoRequestID(cfg.RequestID.Header))),
		grpc: pipeline.NewBuilder(pipeline.Properties{"host.protocol": "grpc"}).
			Use(use(stamp)),
	}, nil
}

func routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/echo", func(w http.ResponseWriter, r *http.Request) {
		id, _ := requestid.FromContext(r.Context())
		w.Header().Set("content-type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
		})
	})
	return mux
}
