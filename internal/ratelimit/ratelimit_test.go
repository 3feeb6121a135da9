package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestAllowPerKey(t *testing.T) {
	l := New(60, 2, time.Minute)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatalf("burst of 2 should be allowed")
	}
	if l.Allow("a") {
		t.Fatalf("third request should be limited")
	}
	if !l.Allow("b") {
		t.Fatalf("other keys have their own bucket")
	}

	clock = clock.Add(time.Second)
	if !l.Allow("a") {
		t.Fatalf("one token should refill after a second at 60/min")
	}
}

func TestSweepDropsIdleBuckets(t *testing.T) {
	l := New(10, 1, time.Minute)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	l.Allow("old")
	clock = clock.Add(2 * time.Minute)
	l.Allow("fresh")
	l.Sweep()

	if l.Len() != 1 {
		t.Fatalf("expected only the fresh bucket, have %d", l.Len())
	}
}

func TestStartStop(t *testing.T) {
	l := New(10, 1, time.Millisecond)
	l.Allow("x")
	l.Start(context.Background(), 5*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for l.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	l.Stop()
	l.Stop()

	if l.Len() != 0 {
		t.Fatalf("sweeper did not drop the idle bucket")
	}
}

func TestMiddleware(t *testing.T) {
	l := New(60, 1, time.Minute)
	h := l.Middleware(ClientIP(false))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	do := func(remote, fwd string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/contact", nil)
		req.RemoteAddr = remote
		if fwd != "" {
			req.Header.Set("X-Forwarded-For", fwd)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	if rr := do("10.0.0.1:5000", ""); rr.Code != http.StatusCreated {
		t.Fatalf("first request: %d", rr.Code)
	}
	rr := do("10.0.0.1:5001", "1.2.3.4")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request from same host: %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}
	if rr := do("10.0.0.2:5000", ""); rr.Code != http.StatusCreated {
		t.Fatalf("other host: %d", rr.Code)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:4321"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	if got := ClientIP(false)(req); got != "192.0.2.7" {
		t.Fatalf("untrusted: %q", got)
	}
	if got := ClientIP(true)(req); got != "203.0.113.9" {
		t.Fatalf("trusted: %q", got)
	}
}
