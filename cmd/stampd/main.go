package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"requestid-middleware/internal/platform/admin"
	"requestid-middleware/internal/platform/boot"
	"requestid-middleware/internal/platform/config"
	"requestid-middleware/internal/platform/grpcutil"
	"requestid-middleware/internal/platform/httpmw"
	"requestid-middleware/internal/requestid"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	health "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := boot.Run(context.Background(), boot.Options{Config: cfg}, func(ctx context.Context, deps boot.Deps) (boot.Main, error) {
		return build(cfg, deps)
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func build(cfg *config.Config, deps boot.Deps) (boot.Main, error) {
	log := deps.Log

	// One counter for the whole process; every sequential stamp shares it.
	counter := requestid.NewCounter()

	p, err := newPipeline(cfg, counter)
	if err != nil {
		return boot.Main{}, err
	}

	limiter := httpmw.NewIPLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst, 5*time.Minute, log)

	handler := httpmw.BuildEdgeHandler(log, httpmw.EdgePolicy{
		ServiceName:     cfg.Service.Name,
		RequestIDHeader: cfg.RequestID.Header,
		Pipeline:        p.http,
		Timeout:         cfg.HTTP.Timeout,
		MaxInFlight:     cfg.HTTP.MaxInFlight,
		Leaf:            httpmw.Chain{limiter.Middleware},
	}, routes())

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	m := boot.Main{
		Servers: []boot.Server{{
			Name: "http",
			Serve: func() error {
				log.Info("http listening", zap.String("addr", cfg.HTTP.Addr))
				if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			},
			Shutdown: httpSrv.Shutdown,
		}},
		Checks: map[string]admin.Check{
			"pipeline": func(context.Context) error { return nil },
		},
		CounterFn: counter.Load,
	}

	if cfg.GRPC.Addr != "" {
		gs := grpc.NewServer(grpcutil.ServerOptions(log, p.grpc)...)
		hs := health.NewServer()
		healthpb.RegisterHealthServer(gs, hs)
		hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

		m.Servers = append(m.Servers, boot.Server{
			Name: "grpc",
			Serve: func() error {
				lis, err := net.Listen("tcp", cfg.GRPC.Addr)
				if err != nil {
					return err
				}
				log.Info("grpc listening", zap.String("addr", cfg.GRPC.Addr))
				return gs.Serve(lis)
			},
			Shutdown: func(ctx context.Context) error {
				hs.Shutdown()
				done := make(chan struct{})
				go func() {
					gs.GracefulStop()
					close(done)
				}()
				select {
				case <-done:
					return nil
				case <-ctx.Done():
					gs.Stop()
					return ctx.Err()
				}
			},
		})
	}

	return m, nil
}
