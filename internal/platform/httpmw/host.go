package httpmw

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"requestid-middleware/internal/pipeline"
	"requestid-middleware/internal/platform/logging"
	"requestid-middleware/internal/requestid"

	"go.uber.org/zap"
)

// DefaultRequestIDHeader carries the request id in and out of the service.
const DefaultRequestIDHeader = "X-Request-Id"

// Env keys populated by Host for every request.
const (
	EnvRequestMethod      = "owin.RequestMethod"
	EnvRequestPath        = "owin.RequestPath"
	EnvRequestQueryString = "owin.RequestQueryString"
	EnvRequestHeaders     = "owin.RequestHeaders"
	EnvResponseHeaders    = "owin.ResponseHeaders"
	EnvCallCancelled      = "owin.CallCancelled"

	EnvRequest        = "host.Request"
	EnvResponseWriter = "host.ResponseWriter"
)

// errNotHosted is returned when the forwarding unit runs without Host's env.
var errNotHosted = errors.New("httpmw: env was not created by Host")

// HostOptions configures Host.
type HostOptions struct {
	// Header is read for an upstream request id and written back by
	// EchoRequestID. Defaults to DefaultRequestIDHeader.
	Header string
	Log    *zap.Logger
}

// Host runs the pipeline built from b for every request before handing the
// request on to next. The env is seeded with the request id from the inbound
// header when it is not blank, so a stamp in b only generates one when the
// caller did not send it.
//
// b is built once, when the middleware is applied.
func Host(b *pipeline.Builder, opts HostOptions) Middleware {
	header := opts.Header
	if header == "" {
		header = DefaultRequestIDHeader
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	if b == nil {
		b = pipeline.NewBuilder(nil)
	}

	return func(next http.Handler) http.Handler {
		h := b.Build(forward(next, header, log))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			env := newEnv(w, r, header)
			if err := h.Handle(r.Context(), env); err != nil {
				writeError(w, r, log, err)
			}
		})
	}
}

// DefaultPipeline stamps a random id and echoes it in header.
func DefaultPipeline(header string) *pipeline.Builder {
	b := requestid.UseRandom(pipeline.NewBuilder(nil))
	return b.Use(func(pipeline.Properties) pipeline.Middleware { return EchoRequestID(header) })
}

// EchoRequestID copies the stamped request id into the response header.
func EchoRequestID(header string) pipeline.Middleware {
	if header == "" {
		header = DefaultRequestIDHeader
	}
	return func(next pipeline.Handler) pipeline.Handler {
		return pipeline.HandlerFunc(func(ctx context.Context, env pipeline.Env) error {
			if id, ok := requestid.FromEnv(env); ok {
				if v, ok := env.Lookup(EnvResponseHeaders); ok {
					if h, ok := v.(http.Header); ok {
						h.Set(header, id)
					}
				}
			}
			return next.Handle(ctx, env)
		})
	}
}

func newEnv(w http.ResponseWriter, r *http.Request, header string) pipeline.MapEnv {
	env := pipeline.MapEnv{
		EnvRequestMethod:      r.Method,
		EnvRequestPath:        r.URL.Path,
		EnvRequestQueryString: r.URL.RawQuery,
		EnvRequestHeaders:     r.Header,
		EnvResponseHeaders:    w.Header(),
		EnvCallCancelled:      r.Context(),
		EnvRequest:            r,
		EnvResponseWriter:     w,
	}
	if rid := strings.TrimSpace(r.Header.Get(header)); rid != "" {
		env[requestid.Key] = rid
	}
	return env
}

// forward is the terminal unit: it puts the request id on the request and its
// context, then serves next.
func forward(next http.Handler, header string, log *zap.Logger) pipeline.Handler {
	return pipeline.HandlerFunc(func(ctx context.Context, env pipeline.Env) error {
		wv, _ := env.Lookup(EnvResponseWriter)
		rv, _ := env.Lookup(EnvRequest)
		w, ok := wv.(http.ResponseWriter)
		if !ok {
			return errNotHosted
		}
		r, ok := rv.(*http.Request)
		if !ok {
			return errNotHosted
		}

		if id, ok := requestid.FromEnv(env); ok {
			r.Header.Set(header, id)
			ctx = requestid.WithContext(ctx, id)
			ctx = logging.With(ctx, logging.WithRequestID(logging.From(ctx, log), id))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
		return nil
	})
}

func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	lg := logging.Enrich(r.Context(), log)
	switch {
	case errors.Is(err, context.Canceled):
		lg.Debug("request canceled", zap.Error(err))
	case errors.Is(err, context.DeadlineExceeded):
		lg.Warn("pipeline deadline exceeded", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusGatewayTimeout), http.StatusGatewayTimeout)
	default:
		lg.Error("pipeline failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
