package shield

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/leadscout/kit"
)

func chain(h http.Handler, mws []func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func TestAPIStack_HeadersAndRequestID(t *testing.T) {
	// WHAT: Every API response carries the security headers and a request id
	// that is also visible to the handler through kit.
	// WHY: Logs from the store layer are correlated by request id.
	var seenID, seenTransport string
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = kit.GetRequestID(r.Context())
		seenTransport = kit.GetTransport(r.Context())
		w.WriteHeader(http.StatusOK)
	}), APIStack(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leads", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
	id := rec.Header().Get(RequestIDHeader)
	if !strings.HasPrefix(id, "req_") {
		t.Fatalf("request id = %q", id)
	}
	if seenID != id {
		t.Errorf("handler saw %q, header %q", seenID, id)
	}
	if seenTransport != "http" {
		t.Errorf("transport = %q", seenTransport)
	}
}

func TestRequestID_ReusesValidIncoming(t *testing.T) {
	h := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("valid id replaced: %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "bad id\nwith newline")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got == "bad id\nwith newline" {
		t.Error("invalid id echoed back")
	}
}

func TestHeadToGet(t *testing.T) {
	var method string
	h := HeadToGet(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodHead, "/healthz", nil))
	if method != http.MethodGet {
		t.Errorf("method = %s, want GET", method)
	}
}

func TestRateLimiter_WindowAndExclusions(t *testing.T) {
	// WHAT: The third request inside a window is rejected with 429; excluded
	// paths and a new window pass.
	// WHY: Health checks must never be throttled by a noisy client.
	rl, err := NewRateLimiter(RateLimitConfig{MaxRequests: 2, Window: time.Minute}, "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	do := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "203.0.113.9:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i, want := range []int{200, 200, 429} {
		if got := do("/leads"); got != want {
			t.Fatalf("request %d: status %d, want %d", i, got, want)
		}
	}
	if got := do("/healthz"); got != 200 {
		t.Errorf("excluded path: status %d", got)
	}

	now = now.Add(61 * time.Second)
	if got := do("/leads"); got != 200 {
		t.Errorf("new window: status %d", got)
	}
}

func TestExtractIP(t *testing.T) {
	tp, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.0.2.10"})
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name   string
		remote string
		xff    []string
		want   string
	}{
		{"no header", "198.51.100.7:1234", nil, "198.51.100.7"},
		{"untrusted peer ignores header", "198.51.100.7:1234", []string{"203.0.113.5"}, "198.51.100.7"},
		{"trusted peer", "10.1.2.3:80", []string{"203.0.113.5"}, "203.0.113.5"},
		{"spoofed left hop skipped", "10.1.2.3:80", []string{"1.1.1.1, 203.0.113.5, 10.9.9.9"}, "203.0.113.5"},
		{"repeated headers", "192.0.2.10:80", []string{"1.1.1.1", "203.0.113.5"}, "203.0.113.5"},
		{"all hops trusted", "10.1.2.3:80", []string{"10.0.0.2, 10.0.0.3"}, "10.0.0.2"},
		{"trusted peer without header", "10.1.2.3:80", nil, "10.1.2.3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for _, v := range tc.xff {
				req.Header.Add("X-Forwarded-For", v)
			}
			if got := ExtractIP(req, tp); got != tc.want {
				t.Errorf("ExtractIP = %q, want %q", got, tc.want)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:80"
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	if got := ExtractIP(req, nil); got != "10.1.2.3" {
		t.Errorf("nil proxies must ignore the header, got %q", got)
	}
}

func TestParseTrustedProxies_Invalid(t *testing.T) {
	for _, bad := range []string{"10.0.0.0/33", "not-an-ip"} {
		if _, err := ParseTrustedProxies([]string{bad}); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
	if _, err := NewRateLimiter(RateLimitConfig{MaxRequests: 1, TrustedProxies: []string{"nope"}}); err == nil {
		t.Error("NewRateLimiter accepted a malformed proxy")
	}
}

func TestRateLimiter_ForwardedForCannotRotateBuckets(t *testing.T) {
	// WHAT: A direct client sending a fresh X-Forwarded-For on every request
	// still shares one bucket.
	// WHY: Otherwise any caller could lift the limit by inventing addresses.
	rl, err := NewRateLimiter(RateLimitConfig{MaxRequests: 2, Window: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i, want := range []int{200, 200, 429, 429} {
		req := httptest.NewRequest(http.MethodGet, "/leads", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: status %d, want %d", i, rec.Code, want)
		}
	}
}

func TestRateLimiter_TrustedProxyBucketsPerClient(t *testing.T) {
	rl, err := NewRateLimiter(RateLimitConfig{MaxRequests: 1, Window: time.Minute, TrustedProxies: []string{"10.0.0.1"}})
	if err != nil {
		t.Fatal(err)
	}
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	do := func(client string) int {
		req := httptest.NewRequest(http.MethodGet, "/leads", nil)
		req.RemoteAddr = "10.0.0.1:443"
		req.Header.Set("X-Forwarded-For", client)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	if do("203.0.113.1") != 200 || do("203.0.113.2") != 200 {
		t.Fatal("distinct clients behind the proxy should get their own bucket")
	}
	if got := do("203.0.113.1"); got != http.StatusTooManyRequests {
		t.Errorf("second request from same client: %d", got)
	}
}
