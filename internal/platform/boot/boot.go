package boot

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"requestid-middleware/internal/platform/admin"
	"requestid-middleware/internal/platform/config"
	"requestid-middleware/internal/platform/logging"
	"requestid-middleware/internal/platform/otel"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Server is one listener run by the service (HTTP or gRPC).
type Server struct {
	Name     string
	Serve    func() error
	Shutdown func(context.Context) error
}

// Main is what a service's build function hands back to Run.
type Main struct {
	Servers []Server
	// Checks are added to the admin /readyz endpoint.
	Checks map[string]admin.Check
	// CounterFn, if set, is exposed on /debug/requestid.
	CounterFn func() int64
}

// Deps are the shared platform dependencies provided to each service.
type Deps struct {
	Log     *zap.Logger
	Metrics http.Handler
	Serving *atomic.Bool
}

// Options configures the platform boot.
type Options struct {
	Config *config.Config

	// OTELExtraAttrs are added to both tracing + metrics resources.
	OTELExtraAttrs []attribute.KeyValue

	// Signals cancel the run; defaults to SIGINT and SIGTERM.
	Signals []os.Signal
}

// Run boots the logger, OTEL, and admin listener, then runs every server from
// build until one fails, ctx is canceled, or a shutdown signal arrives.
func Run(ctx context.Context, opts Options, build func(ctx context.Context, deps Deps) (Main, error)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := opts.Config
	if cfg == nil {
		return errors.New("boot: Config is required")
	}
	if cfg.Service.Name == "" {
		return errors.New("boot: service name is required")
	}
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	sigs := opts.Signals
	if len(sigs) == 0 {
		sigs = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}

	log, err := logging.New(cfg.Service.Name, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigc := make(chan os.Signal, 2)
	signal.Notify(sigc, sigs...)
	defer signal.Stop(sigc)

	metricsH, shutdownOTEL, err := otel.Setup(runCtx, cfg.Service.Name, cfg.OTEL, opts.OTELExtraAttrs...)
	if err != nil {
		return err
	}

	var serving atomic.Bool
	serving.Store(true)

	main, err := build(runCtx, Deps{Log: log, Metrics: metricsH, Serving: &serving})
	if err != nil {
		_ = shutdownOTEL(context.Background())
		return err
	}
	if len(main.Servers) == 0 {
		_ = shutdownOTEL(context.Background())
		return errors.New("boot: at least one server is required")
	}
	for _, s := range main.Servers {
		if s.Serve == nil || s.Shutdown == nil {
			_ = shutdownOTEL(context.Background())
			return errors.New("boot: Server.Serve and Server.Shutdown are required")
		}
	}

	adminSrv, err := admin.Start(log, admin.Options{
		Addr:      cfg.Admin.Addr,
		Metrics:   metricsH,
		Checks:    main.Checks,
		ServingFn: serving.Load,
		CounterFn: main.CounterFn,
	})
	if err != nil {
		_ = shutdownOTEL(context.Background())
		return err
	}

	errCh := make(chan error, len(main.Servers))
	for _, s := range main.Servers {
		s := s
		go func() {
			log.Info("server starting", zap.String("server", s.Name))
			if err := s.Serve(); err != nil {
				log.Error("server exited", zap.String("server", s.Name), zap.Error(err))
				errCh <- err
				return
			}
			errCh <- nil
		}()
	}

	select {
	case <-runCtx.Done():
	case sig := <-sigc:
		log.Info("shutdown signal", zap.String("signal", sig.String()))
	case <-errCh:
	}
	cancel()

	// Stop advertising readiness before shutdown.
	serving.Store(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	var errs []error
	for _, s := range main.Servers {
		if err := s.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := adminSrv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := shutdownOTEL(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
