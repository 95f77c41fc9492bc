package httpmw

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"requestid-middleware/internal/platform/logging"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// IPLimiter is an in-memory token bucket per client IP.
type IPLimiter struct {
	rate    rate.Limit
	burst   int
	ttl     time.Duration
	log     *zap.Logger
	mu      sync.Mutex
	clients map[string]*ipClient
}

type ipClient struct {
	lim  *rate.Limiter
	last time.Time
}

// NewIPLimiter returns nil when r <= 0; a nil limiter's Middleware is a pass-through.
func NewIPLimiter(r rate.Limit, burst int, ttl time.Duration, log *zap.Logger) *IPLimiter {
	if r <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &IPLimiter{
		rate:    r,
		burst:   burst,
		ttl:     ttl,
		log:     log,
		clients: make(map[string]*ipClient),
	}
}

func (l *IPLimiter) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	// opportunistic cleanup
	for k, c := range l.clients {
		if now.Sub(c.last) > l.ttl {
			delete(l.clients, k)
		}
	}

	c, ok := l.clients[ip]
	if !ok {
		c = &ipClient{lim: rate.NewLimiter(l.rate, l.burst)}
		l.clients[ip] = c
	}
	c.last = now
	return c.lim
}

func (l *IPLimiter) Middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if ip == "" {
			ip = "unknown"
		}
		res := l.get(ip, time.Now()).Reserve()
		if delay := res.Delay(); delay > 0 {
			res.Cancel()
			logging.From(r.Context(), l.log).Info("rate limited", zap.String("client.ip", ip))
			w.Header().Set("Retry-After", strconv.Itoa(int(delay.Round(time.Second)/time.Second)+1))
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	// RemoteAddr may already be a host.
	if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}
	return ""
}
