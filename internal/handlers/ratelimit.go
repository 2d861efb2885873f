package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "accounting/internal/log"

	"golang.org/x/time/rate"
)

// limiterEntry holds a rate limiter and the last time it was seen.
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// AuthLimiter applies a per-IP token bucket to login and registration
// submissions to slow down password guessing.
type AuthLimiter struct {
	mu         sync.Mutex
	entries    map[string]*limiterEntry
	limit      rate.Limit
	burst      int
	staleAfter time.Duration
	trustProxy bool
}

// NewAuthLimiter returns a limiter allowing rps submissions per second with
// the given burst. A non-positive rps disables limiting and returns nil.
// Clients are keyed by connection address; X-Forwarded-For and X-Real-IP
// are only honoured when trustProxy is set.
func NewAuthLimiter(rps float64, burst int, trustProxy bool) *AuthLimiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &AuthLimiter{
		entries:    make(map[string]*limiterEntry),
		limit:      rate.Limit(rps),
		burst:      burst,
		staleAfter: 10 * time.Minute,
		trustProxy: trustProxy,
	}
}

func (l *AuthLimiter) clientKey(r *http.Request) string {
	if l.trustProxy {
		return applog.ClientIP(r)
	}
	return applog.RemoteIP(r)
}

func (l *AuthLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = time.Now()
	return e.limiter.Allow()
}

// Cleanup drops limiters idle for longer than the stale period.
func (l *AuthLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-l.staleAfter)
	removed := 0
	for k, e := range l.entries {
		if e.lastSeen.Before(cutoff) {
			delete(l.entries, k)
			removed++
		}
	}
	return removed
}

// Janitor runs Cleanup every interval until ctx is done.
func (l *AuthLimiter) Janitor(ctx context.Context, interval time.Duration) error {
	if l == nil {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

// Middleware limits POST requests per client IP. A nil limiter passes
// everything through.
func (l *AuthLimiter) Middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		ip := l.clientKey(r)
		if !l.allow("auth:" + ip) {
			applog.FromContext(r.Context()).Warn("Auth rate limit exceeded", applog.FieldClientIP, ip, applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too many attempts. Please try again later.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
