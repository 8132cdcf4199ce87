package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"tipsheet/internal/domain/roster"
	"tipsheet/internal/transport/http/api"
)

type RateLimitKeyFunc func(r *http.Request) string

type rateBucket struct {
	count int
	reset time.Time
}

type rateDecision struct {
	allowed   bool
	remaining int
	resetIn   int
}

// rateLimiter is a fixed-window counter per key. Expired windows are swept
// once per window so idle clients do not accumulate.
type rateLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	keyFn     RateLimitKeyFunc
	buckets   map[string]*rateBucket
	nextSweep time.Time
}

func newRateLimiter(limit int, window time.Duration, keyFn RateLimitKeyFunc) *rateLimiter {
	if keyFn == nil {
		keyFn = actorOrIPKey
	}
	return &rateLimiter{
		limit:   limit,
		window:  window,
		keyFn:   keyFn,
		buckets: map[string]*rateBucket{},
	}
}

// RateLimit throttles per signed-in session, or per client address for
// anonymous requests.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	rl := newRateLimiter(limit, window, actorOrIPKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.enforce(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CredentialRateLimit throttles the PIN and manager-secret endpoints per
// client address and, for PIN checks, per employee name, so guessing one
// employee's PIN from many addresses is throttled as well.
func CredentialRateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	byIP := newRateLimiter(limit, window, clientIPKey)
	byName := newRateLimiter(limit, window, AuthFieldOrIPKey("name"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if credentialScope(r) && (!byIP.enforce(w, r) || !byName.enforce(w, r)) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthFieldOrIPKey keys on a JSON body field, falling back to the client
// address when the field is absent. Values are case-folded the same way the
// roster matches names.
func AuthFieldOrIPKey(field string) RateLimitKeyFunc {
	field = strings.TrimSpace(field)
	if field == "" {
		field = "name"
	}
	return func(r *http.Request) string {
		value := extractJSONField(r, field)
		if value == "" {
			return clientIPKey(r)
		}
		return field + ":" + roster.Key(value)
	}
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.Name != "" {
		return "user:" + user.Role + ":" + roster.Key(user.Name)
	}
	return clientIPKey(r)
}

func clientIPKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	return addr
}

func (rl *rateLimiter) take(key string, now time.Time) rateDecision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.After(rl.nextSweep) {
		for k, b := range rl.buckets {
			if now.After(b.reset) {
				delete(rl.buckets, k)
			}
		}
		rl.nextSweep = now.Add(rl.window)
	}

	bucket, ok := rl.buckets[key]
	if !ok || now.After(bucket.reset) {
		bucket = &rateBucket{reset: now.Add(rl.window)}
		rl.buckets[key] = bucket
	}
	bucket.count++
	return rateDecision{
		allowed:   bucket.count <= rl.limit,
		remaining: max(rl.limit-bucket.count, 0),
		resetIn:   ceilSeconds(bucket.reset.Sub(now)),
	}
}

func (rl *rateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

func (rl *rateLimiter) enforce(w http.ResponseWriter, r *http.Request) bool {
	if rl.limit <= 0 {
		return true
	}
	key := rl.keyFn(r)
	if key == "" {
		key = clientIPKey(r)
	}
	d := rl.take(key, time.Now())

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(d.resetIn))
	if d.allowed {
		return true
	}

	w.Header().Set("Retry-After", strconv.Itoa(max(d.resetIn, 1)))
	slog.Warn("rate limit exceeded",
		"key", key,
		"path", r.URL.Path,
		"method", r.Method,
		"limit", rl.limit,
		"windowSec", int(rl.window.Seconds()),
	)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// extractJSONField peeks at a JSON body and restores it for the handler.
func extractJSONField(r *http.Request, field string) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	value, _ := payload[field].(string)
	return strings.TrimSpace(value)
}

func credentialScope(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}
	switch strings.TrimPrefix(r.URL.Path, "/api/v1") {
	case "/auth/verify", "/manager/auth":
		return true
	}
	return false
}
