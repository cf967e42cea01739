package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter caps how many days a client can trigger per window. Each client
// IP gets a fixed window that opens on its first request.
type RateLimiter struct {
	mu     sync.Mutex
	usage  map[string]*windowUsage
	limit  int
	window time.Duration
	now    func() time.Time
}

type windowUsage struct {
	opened time.Time
	used   int
}

// NewRateLimiter allows limit requests per client per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		usage:  make(map[string]*windowUsage),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow records a request from ip and reports whether it fits the window.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.evictLocked(now)

	u := rl.usage[ip]
	if u == nil || rl.expired(u, now) {
		u = &windowUsage{opened: now}
		rl.usage[ip] = u
	}
	if u.used >= rl.limit {
		return false
	}
	u.used++
	return true
}

// RetryAfter is the number of whole seconds, rounded up past the boundary,
// until ip's window reopens. Zero when ip has no open window.
func (rl *RateLimiter) RetryAfter(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	u := rl.usage[ip]
	if u == nil {
		return 0
	}
	left := u.opened.Add(rl.window).Sub(rl.now())
	if left < 0 {
		return 0
	}
	return int(left.Seconds()) + 1
}

func (rl *RateLimiter) expired(u *windowUsage, now time.Time) bool {
	return now.Sub(u.opened) >= rl.window
}

// evictLocked forgets clients idle for more than two windows.
func (rl *RateLimiter) evictLocked(now time.Time) {
	for ip, u := range rl.usage {
		if now.Sub(u.opened) > 2*rl.window {
			delete(rl.usage, ip)
		}
	}
}

// Wrap rejects over-limit requests with 429 and a Retry-After header.
func (rl *RateLimiter) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if rl.Allow(ip) {
			next(w, r)
			return
		}
		w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter(ip)))
		http.Error(w, "too many simulate requests", http.StatusTooManyRequests)
	}
}

// clientIP prefers the first X-Forwarded-For hop over the socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
