package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/quantum-portal/api/internal/platform/auth"
	"github.com/quantum-portal/api/internal/platform/httpx"
	"github.com/quantum-portal/api/internal/platform/requestctx"
)

// fixedWindowLimiter allows limit hits per key in each window.
type fixedWindowLimiter struct {
	limit  int
	window time.Duration
	clock  func() time.Time

	mu      sync.Mutex
	windows map[string]rateWindow
}

type rateWindow struct {
	count int
	reset time.Time
}

func newFixedWindowLimiter(limit int, window time.Duration, clock func() time.Time) *fixedWindowLimiter {
	if limit <= 0 || window <= 0 {
		return nil
	}
	if clock == nil {
		clock = time.Now
	}
	return &fixedWindowLimiter{limit: limit, window: window, clock: clock, windows: make(map[string]rateWindow)}
}

// allow records a hit for key and reports whether it fits, plus the time the window resets.
func (l *fixedWindowLimiter) allow(key string) (bool, time.Time) {
	now := l.clock()
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !now.Before(w.reset) {
		l.prune(now)
		w = rateWindow{reset: now.Add(l.window)}
	}
	if w.count >= l.limit {
		return false, w.reset
	}
	w.count++
	l.windows[key] = w
	return true, w.reset
}

func (l *fixedWindowLimiter) prune(now time.Time) {
	for key, w := range l.windows {
		if !now.Before(w.reset) {
			delete(l.windows, key)
		}
	}
}

// RateLimitByActor limits requests per tenant and authenticated identity. A non-positive limit
// disables the middleware.
func RateLimitByActor(limit int, window time.Duration, clock func() time.Time) func(http.Handler) http.Handler {
	limiter := newFixedWindowLimiter(limit, window, clock)
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, reset := limiter.allow(actorKey(r))
			if !ok {
				retry := int(reset.Sub(limiter.clock()).Seconds())
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				httpx.WriteError(r.Context(), w, httpx.NewError("rate_limited", "too many requests", http.StatusTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func actorKey(r *http.Request) string {
	tenantID, _ := requestctx.TenantID(r.Context())
	actor := "anonymous"
	if identity, ok := auth.IdentityFromContext(r.Context()); ok && identity.UID != "" {
		actor = identity.UID
	}
	return strings.Join([]string{tenantID, actor}, "|")
}
