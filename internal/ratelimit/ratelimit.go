// Package ratelimit throttles requests per client IP.
package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Ryan-Har/commonground/api"
	"github.com/Ryan-Har/commonground/internal/metrics"
	"golang.org/x/time/rate"
)

const (
	cleanupInterval = 3 * time.Minute
	staleAfter      = 5 * time.Minute
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out one token bucket per client IP.
type Limiter struct {
	log        *slog.Logger
	mu         sync.Mutex
	limiters   map[string]*ipLimiter
	rate       rate.Limit
	burst      int
	trustProxy bool
	now        func() time.Time
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// New returns a limiter allowing perSecond requests with the given burst.
// When trustProxy is set the client address is taken from X-Forwarded-For
// or X-Real-IP before falling back to the connection address.
func New(logger *slog.Logger, perSecond float64, burst int, trustProxy bool) *Limiter {
	if burst < 1 {
		burst = 1
	}
	l := &Limiter{
		log:        logger,
		limiters:   make(map[string]*ipLimiter),
		rate:       rate.Limit(perSecond),
		burst:      burst,
		trustProxy: trustProxy,
		now:        time.Now,
		stopCh:     make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

func (l *Limiter) getLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.limiters[ip]; ok {
		e.lastSeen = now
		return e.limiter
	}

	limiter := rate.NewLimiter(l.rate, l.burst)
	l.limiters[ip] = &ipLimiter{limiter: limiter, lastSeen: now}
	return limiter
}

// Allow reports whether a request from ip may proceed now.
func (l *Limiter) Allow(ip string) bool {
	return l.getLimiter(ip).AllowN(l.now(), 1)
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.prune()
		case <-l.stopCh:
			return
		}
	}
}

// prune drops limiters not seen for staleAfter.
func (l *Limiter) prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	now := l.now()
	for ip, e := range l.limiters {
		if now.Sub(e.lastSeen) > staleAfter {
			delete(l.limiters, ip)
			removed++
		}
	}
	return removed
}

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *Limiter) retryAfter() int {
	if l.rate <= 0 {
		return 60
	}
	return max(int(1.0/float64(l.rate)), 1)
}

// Middleware rejects requests over the limit with 429 and a Retry-After header.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := l.ClientIP(r)
		if !l.Allow(ip) {
			metrics.RateLimited.Inc()
			l.log.Info("rate limit exceeded", "remote_ip", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(l.retryAfter()))
			api.WriteError(w, l.log, api.TooManyRequests())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the address the limiter keys requests by.
func (l *Limiter) ClientIP(r *http.Request) string {
	if l.trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xr := strings.TrimSpace(r.Header.Get("X-Real-IP")); xr != "" {
			return xr
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
