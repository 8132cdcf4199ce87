package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func noContent() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRateLimitUsesUserKeyBeforeIPFallback(t *testing.T) {
	limited := RateLimit(1, time.Minute)(noContent())
	userCtx := WithUser(httptest.NewRequest(http.MethodGet, "/", nil).Context(), UserContext{Name: "Ana", Role: "employee"})

	first := httptest.NewRequest(http.MethodPost, "/api/v1/hours", nil).WithContext(userCtx)
	first.RemoteAddr = "198.51.100.11:2222"
	firstRec := httptest.NewRecorder()
	limited.ServeHTTP(firstRec, first)
	if firstRec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", firstRec.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/api/v1/hours", nil).WithContext(userCtx)
	second.RemoteAddr = "198.51.100.12:3333"
	secondRec := httptest.NewRecorder()
	limited.ServeHTTP(secondRec, second)
	if secondRec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled by user key, got %d", secondRec.Code)
	}
}

func TestRateLimitWindowReset(t *testing.T) {
	limited := RateLimit(1, 40*time.Millisecond)(noContent())

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/hours", nil)
		req.RemoteAddr = "192.0.2.20:1111"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}
	if code := send(); code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", code)
	}
	time.Sleep(50 * time.Millisecond)
	if code := send(); code != http.StatusNoContent {
		t.Fatalf("expected request after window reset to pass, got %d", code)
	}
}

func verifyRequest(name, addr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/verify", bytes.NewBufferString(`{"name":"`+name+`","pin":"0000"}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = addr
	return req
}

func TestCredentialRateLimitByName(t *testing.T) {
	limited := CredentialRateLimit(2, time.Minute)(noContent())

	for i, addr := range []string{"203.0.113.1:1", "203.0.113.2:1"} {
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, verifyRequest("Ana", addr))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected pass, got %d", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, verifyRequest("ana", "203.0.113.3:1"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected third guess at the same name to be throttled, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" || rec.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatal("expected retry metadata")
	}

	rec = httptest.NewRecorder()
	limited.ServeHTTP(rec, verifyRequest("Ben", "203.0.113.4:1"))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected other names unaffected, got %d", rec.Code)
	}
}

func TestCredentialRateLimitBodyStillReadable(t *testing.T) {
	var body string
	limited := CredentialRateLimit(5, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		body = buf.String()
	}))
	limited.ServeHTTP(httptest.NewRecorder(), verifyRequest("Ana", "203.0.113.9:1"))
	if body != `{"name":"Ana","pin":"0000"}` {
		t.Fatalf("expected body replayed to handler, got %q", body)
	}
}

func TestCredentialRateLimitScope(t *testing.T) {
	limited := CredentialRateLimit(1, time.Minute)(noContent())
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/manager/hours/2026-01-15", nil)
		req.RemoteAddr = "198.51.100.40:8888"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected read request %d to bypass credential limits, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimiterSweepsExpiredBuckets(t *testing.T) {
	rl := newRateLimiter(5, 10*time.Millisecond, clientIPKey)
	start := time.Now()
	for _, key := range []string{"a", "b", "c"} {
		rl.take(key, start)
	}
	if rl.size() != 3 {
		t.Fatalf("expected 3 buckets, got %d", rl.size())
	}
	rl.take("d", start.Add(50*time.Millisecond))
	if rl.size() != 1 {
		t.Fatalf("expected expired buckets swept, got %d", rl.size())
	}
}
