package http

import (
	"net"
	"net/http"
	"sync"
	"time"
)

const limiterCleanupInterval = 30 * time.Second

// RateLimiter is a best-effort per-client fixed-window limiter held in
// process memory. Good enough for a single-instance deployment; a
// horizontally scaled setup needs a shared counter instead.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	per     time.Duration

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

type window struct {
	count   int
	resetAt time.Time
}

func NewRateLimiter(limit int, per time.Duration) *RateLimiter {
	l := &RateLimiter{
		windows:     make(map[string]*window),
		limit:       limit,
		per:         per,
		stopCleanup: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.cleanupLoop()

	return l
}

func (l *RateLimiter) cleanupLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evictExpired()
		case <-l.stopCleanup:
			return
		}
	}
}

func (l *RateLimiter) evictExpired() {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, key)
		}
	}
}

// Allow reports whether the client identified by key may make another
// request in the current window.
func (l *RateLimiter) Allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		l.windows[key] = &window{count: 1, resetAt: now.Add(l.per)}
		return true
	}

	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

func (l *RateLimiter) Close() {
	close(l.stopCleanup)
	l.wg.Wait()
}

// Middleware rejects over-limit clients with 429, keyed by remote IP.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !l.Allow(host) {
			respondError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
