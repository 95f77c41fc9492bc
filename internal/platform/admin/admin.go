package admin

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Check reports readiness of one dependency.
type Check func(ctx context.Context) error

// Server is a small admin HTTP server exposing /livez, /readyz, /metrics and
// /debug/requestid.
type Server struct {
	http *http.Server
	ln   net.Listener
}

type Options struct {
	Addr    string
	Metrics http.Handler // optional
	// Checks are evaluated by /readyz; every check must pass.
	Checks    map[string]Check
	ServingFn func() bool // optional NOT_SERVING gate
	// CounterFn reports the request counter for /debug/requestid (optional).
	CounterFn    func() int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Handler returns the admin mux without starting a listener.
func Handler(opts Options) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/readyz", readyz(opts.Checks, opts.ServingFn))
	if opts.Metrics != nil {
		mux.Handle("/metrics", opts.Metrics)
	}
	if opts.CounterFn != nil {
		mux.HandleFunc("/debug/requestid", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]int64{"counter": opts.CounterFn()})
		})
	}
	return mux
}

func Start(log *zap.Logger, opts Options) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}

	srv := &http.Server{
		Addr:         opts.Addr,
		Handler:      Handler(opts),
		ReadTimeout:  orDur(opts.ReadTimeout, 5*time.Second),
		WriteTimeout: orDur(opts.WriteTimeout, 10*time.Second),
		IdleTimeout:  orDur(opts.IdleTimeout, 60*time.Second),
	}

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return nil, err
	}

	as := &Server{http: srv, ln: ln}
	go func() {
		log.Info("admin server listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Error("admin server error", zap.Error(err))
		}
	}()
	return as, nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

type checkResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

func readyz(checks map[string]Check, serving func() bool) http.Handler {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if serving != nil && !serving() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT_SERVING"))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		code := http.StatusOK
		out := make([]checkResult, 0, len(names))
		for _, name := range names {
			res := checkResult{Name: name, Healthy: true}
			if err := checks[name](ctx); err != nil {
				res.Healthy = false
				res.Error = err.Error()
				code = http.StatusServiceUnavailable
			}
			out = append(out, res)
		}
		writeJSON(w, code, out)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func orDur(v, d time.Duration) time.Duration {
	if v <= 0 {
		return d
	}
	return v
}
