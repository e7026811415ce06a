package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)

	if !rl.allow("10.0.0.1", now) || !rl.allow("10.0.0.1", now) {
		t.Fatal("requests within the limit must pass")
	}
	if rl.allow("10.0.0.1", now) {
		t.Error("request over the limit must be rejected")
	}

	// A different client has its own bucket.
	if !rl.allow("10.0.0.2", now) {
		t.Error("limit must be tracked per client")
	}

	// A new window resets the count.
	if !rl.allow("10.0.0.1", now.Add(2*time.Minute)) {
		t.Error("expired window must reset the count")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "192.0.2.1:4000"

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("second request should be limited, got %d", rr.Code)
	}
}
