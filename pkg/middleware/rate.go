// Package middleware holds the HTTP middleware shared by every route group.
package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/response"
)

// window is a fixed-window request counter for one client.
type window struct {
	count   int
	resetAt time.Time
}

// Limiter counts requests per client in fixed windows.
type Limiter struct {
	max        int
	period     time.Duration
	trustProxy bool
	now        func() time.Time

	mu      sync.Mutex
	clients map[string]*window
	sweepAt time.Time
}

// NewLimiter allows max requests per period for each client. When trustProxy
// is set the left-most X-Forwarded-For address identifies the client.
func NewLimiter(max int, period time.Duration, trustProxy bool) *Limiter {
	if max <= 0 {
		max = 1
	}
	if period <= 0 {
		period = time.Minute
	}
	return &Limiter{
		max:        max,
		period:     period,
		trustProxy: trustProxy,
		now:        time.Now,
		clients:    make(map[string]*window),
	}
}

// Allow records one request for key and reports whether it is within the
// limit, plus the time until the current window resets.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.After(l.sweepAt) {
		for k, w := range l.clients {
			if now.After(w.resetAt) {
				delete(l.clients, k)
			}
		}
		l.sweepAt = now.Add(l.period)
	}

	w, ok := l.clients[key]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(l.period)}
		l.clients[key] = w
	}
	w.count++
	return w.count <= l.max, w.resetAt.Sub(now)
}

// Middleware rejects clients over the limit with 429 and a Retry-After header.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := l.Allow(l.clientKey(r))
		if !ok {
			secs := int(wait.Round(time.Second).Seconds())
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			response.Error(w, http.StatusTooManyRequests, "Too Many Requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *Limiter) clientKey(r *http.Request) string {
	if l.trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit limits each client IP to max requests per period.
func RateLimit(max int, period time.Duration, trustProxy bool) func(http.Handler) http.Handler {
	return NewLimiter(max, period, trustProxy).Middleware
}
