package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("4th request should be denied")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("different key should be allowed")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	rl.Allow("expired")
	rl.Allow("active")

	rl.mu.Lock()
	rl.visitors["expired"].lastSeen = time.Now().Add(-2 * time.Minute)
	rl.mu.Unlock()

	rl.Cleanup()

	if n := rl.size(); n != 1 {
		t.Fatalf("visitors = %d, want 1", n)
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.visitors["active"]; !ok {
		t.Error("active entry should still exist")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	keyFunc := func(r *http.Request) string { return "test" }

	handler := RateLimit(rl, keyFunc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}

	req := httptest.NewRequest("POST", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("3rd request: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if !strings.Contains(rec.Body.String(), "Too many requests") {
		t.Errorf("body = %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name      string
		headers   map[string]string
		remote    string
		want      string
		untrusted string
	}{
		{"cloudflare", map[string]string{"CF-Connecting-IP": "9.9.9.9", "X-Forwarded-For": "1.1.1.1"}, "10.0.0.1:1234", "9.9.9.9", "10.0.0.1"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "1.1.1.1, 10.0.0.2"}, "10.0.0.1:1234", "1.1.1.1", "10.0.0.1"},
		{"forwarded single", map[string]string{"X-Forwarded-For": " 2.2.2.2 "}, "10.0.0.1:1234", "2.2.2.2", "10.0.0.1"},
		{"remote addr", nil, "10.0.0.1:1234", "10.0.0.1", "10.0.0.1"},
		{"remote addr without port", nil, "10.0.0.1", "10.0.0.1", "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(true)(req); got != tt.want {
				t.Errorf("trusted ClientIP = %q, want %q", got, tt.want)
			}
			if got := ClientIP(false)(req); got != tt.untrusted {
				t.Errorf("untrusted ClientIP = %q, want %q", got, tt.untrusted)
			}
		})
	}
}

func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	handler := RateLimit(rl, ClientIP(false))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	allowed := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest("POST", "/", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		req.Header.Set("X-Forwarded-For", "198.51.100."+strconv.Itoa(i))
		req.Header.Set("CF-Connecting-IP", "192.0.2."+strconv.Itoa(i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		}
	}
	if allowed != 2 {
		t.Errorf("allowed = %d, want 2", allowed)
	}
	if n := rl.size(); n != 1 {
		t.Errorf("visitors = %d, want 1", n)
	}
}
