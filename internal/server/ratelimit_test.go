package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTestRateLimiter builds a rateLimiter whose eviction goroutine stops on
// test cleanup.
func newTestRateLimiter(t *testing.T, rps float64, burst int) *rateLimiter {
	t.Helper()
	rl, stop := newRateLimiter(rps, burst, discardLogger())
	t.Cleanup(stop)
	return rl
}

func doLimitedRequest(rl *rateLimiter, remoteAddr string) int {
	handler := rl.middleware(okHandler)
	req := httptest.NewRequest(http.MethodPost, "/v1/ask", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func Test_RateLimit_BurstThenRejection(t *testing.T) {
	t.Parallel()

	// Effectively no refill during the test; burst of 2.
	rl := newTestRateLimiter(t, 0.001, 2)

	const addr = "192.0.2.1:52000"
	if code := doLimitedRequest(rl, addr); code != http.StatusOK {
		t.Fatalf("request 1: got %d, want 200", code)
	}
	if code := doLimitedRequest(rl, addr); code != http.StatusOK {
		t.Fatalf("request 2: got %d, want 200", code)
	}
	if code := doLimitedRequest(rl, addr); code != http.StatusTooManyRequests {
		t.Fatalf("request 3: got %d, want 429", code)
	}
}

func Test_RateLimit_RetryAfterHeader(t *testing.T) {
	t.Parallel()

	rl := newTestRateLimiter(t, 0.001, 1)
	handler := rl.middleware(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", nil)
	req.RemoteAddr = "192.0.2.2:52000"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status: got %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response must carry Retry-After")
	}
}

// Test_RateLimit_PerIPIsolation verifies one client's exhaustion does not
// throttle another.
func Test_RateLimit_PerIPIsolation(t *testing.T) {
	t.Parallel()

	rl := newTestRateLimiter(t, 0.001, 1)

	if code := doLimitedRequest(rl, "192.0.2.3:1000"); code != http.StatusOK {
		t.Fatalf("client A request 1: got %d", code)
	}
	if code := doLimitedRequest(rl, "192.0.2.3:1000"); code != http.StatusTooManyRequests {
		t.Fatalf("client A request 2: got %d, want 429", code)
	}
	if code := doLimitedRequest(rl, "192.0.2.4:1000"); code != http.StatusOK {
		t.Errorf("client B must not be throttled by client A, got %d", code)
	}
}

func Test_RateLimit_EvictsStaleEntries(t *testing.T) {
	t.Parallel()

	rl := newTestRateLimiter(t, 1, 1)
	rl.getLimiter("192.0.2.5")

	rl.mu.Lock()
	rl.limiters["192.0.2.5"].lastSeen = time.Now().Add(-evictAfter - time.Minute)
	rl.mu.Unlock()

	rl.evict()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.limiters) != 0 {
		t.Errorf("stale entry not evicted, %d remain", len(rl.limiters))
	}
}

func Test_ClientIP(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"192.0.2.9:1234": "192.0.2.9",
		"[::1]:8080":     "::1",
		"no-port-at-all": "no-port-at-all",
	}
	for addr, want := range cases {
		r := &http.Request{RemoteAddr: addr}
		if got := clientIP(r); got != want {
			t.Errorf("clientIP(%q): got %q, want %q", addr, got, want)
		}
	}
}
