package api

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Bucket housekeeping: a sweep runs at most once per interval and drops
// clients idle past the stale threshold, keeping the map bounded.
const (
	limiterSweepInterval = 5 * time.Minute
	limiterStaleAfter    = 10 * time.Minute
)

// ipLimiter throttles ingress per client IP. Each IP gets its own token
// bucket (golang.org/x/time/rate): burst tokens up front, refilled at the
// configured per-second rate.
type ipLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*ipBucket
	rate      rate.Limit
	burst     int
	lastSweep time.Time
}

type ipBucket struct {
	tokens   *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(rps float64, burst int) *ipLimiter {
	return &ipLimiter{
		buckets:   make(map[string]*ipBucket),
		rate:      rate.Limit(rps),
		burst:     burst,
		lastSweep: time.Now(),
	}
}

// allow reports whether a request from ip may proceed, consuming one token.
func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.sweep(now)

	b, ok := l.buckets[ip]
	if !ok {
		b = &ipBucket{tokens: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = now
	return b.tokens.Allow()
}

// sweep drops buckets for idle clients. Caller holds the lock.
func (l *ipLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < limiterSweepInterval {
		return
	}
	for ip, b := range l.buckets {
		if now.Sub(b.lastSeen) > limiterStaleAfter {
			delete(l.buckets, ip)
		}
	}
	l.lastSweep = now
}

// rateLimitMiddleware rejects requests from clients that exhausted their
// token bucket. 429 responses carry Retry-After so well-behaved clients
// back off.
func rateLimitMiddleware(l *ipLimiter, trustProxy bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, trustProxy)
			if !l.allow(ip) {
				logger.Warn("rate limit exceeded",
					"ip", ip,
					"path", r.URL.Path,
					"method", r.Method,
				)
				w.Header().Set("Retry-After", "1")
				WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP picks the address the limiter buckets by. Proxy headers
// (X-Real-IP, then the first X-Forwarded-For entry) are honored only when
// trustProxy is set and only when they parse as an IP; anything else falls
// through to the connection's remote address, so a spoofed header cannot
// smuggle an arbitrary bucket key.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip.String()
		}
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip.String()
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
