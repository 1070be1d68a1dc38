package httpx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		order = append(order, "handler")
	}), mk("a"), mk("b"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "handler" {
		t.Fatalf("unexpected order: %v", order)
	}
}

func TestWithRequestID(t *testing.T) {
	var seen string
	h := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if seen != "abc" || rw.Header().Get(RequestIDHeader) != "abc" {
		t.Fatalf("expected request id to be propagated, got %q", seen)
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(NewMemoryLimiter(2, time.Minute), nil, true)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last *httptest.ResponseRecorder
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		last = httptest.NewRecorder()
		h.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status codes: %v", codes)
	}
	if last.Header().Get("Retry-After") == "" || !strings.Contains(last.Body.String(), `"kind":"rate_limited"`) {
		t.Fatalf("expected retry-after and json body, got %v %s", last.Header(), last.Body.String())
	}
}

func TestMemoryLimiterWindowResets(t *testing.T) {
	now := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(1, time.Minute)
	l.now = func() time.Time { return now }

	if ok, _, _ := l.Allow(context.Background(), "a"); !ok {
		t.Fatal("first request should pass")
	}
	ok, retry, _ := l.Allow(context.Background(), "a")
	if ok || retry != time.Minute {
		t.Fatalf("expected rejection with 1m retry, got %v %s", ok, retry)
	}
	if ok, _, _ := l.Allow(context.Background(), "b"); !ok {
		t.Fatal("other clients have their own window")
	}

	now = now.Add(time.Minute)
	if ok, _, _ := l.Allow(context.Background(), "a"); !ok {
		t.Fatal("window should have reset")
	}
	if len(l.windows) != 1 {
		t.Fatalf("expected expired windows swept, have %d", len(l.windows))
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	return false, 0, errors.New("redis down")
}

func TestRateLimitFailClosed(t *testing.T) {
	h := RateLimit(failingLimiter{}, nil, false)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	if rw.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rw.Code)
	}
}

func TestClientKeyPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.2")
	if got := clientKey(req); got != "203.0.113.9" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestWriteError(t *testing.T) {
	rw := httptest.NewRecorder()
	WriteError(rw, http.StatusConflict, ErrorBody{Error: "slot taken", Kind: "conflict", Retryable: true})
	if rw.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rw.Code)
	}
	if rw.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected json content type")
	}
}

func TestWithRequestIDGeneratesWhenMissingOrOversized(t *testing.T) {
	h := WithRequestID(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	for _, incoming := range []string{"", strings.Repeat("x", 200)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if incoming != "" {
			req.Header.Set(RequestIDHeader, incoming)
		}
		rw := httptest.NewRecorder()
		h.ServeHTTP(rw, req)
		if got := rw.Header().Get(RequestIDHeader); len(got) != 32 {
			t.Fatalf("expected generated 32 char id, got %q", got)
		}
	}
}

func TestAccessLogDefaultsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := WithAccessLog(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?date=2030-01-07", nil))

	if !strings.Contains(buf.String(), `"status":200`) || !strings.Contains(buf.String(), `"query":"date=2030-01-07"`) {
		t.Fatalf("unexpected access log: %s", buf.String())
	}
}

func TestBodyLimit(t *testing.T) {
	h := WithBodyLimit(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
		}
	}))
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too long")))
	if rw.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rw.Code)
	}
}

func TestBodyLimitRejectsDeclaredLength(t *testing.T) {
	called := false
	h := WithBodyLimit(4)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	if called || rw.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 before the handler, got %d (called=%v)", rw.Code, called)
	}
}

func TestWithRecover(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := WithRecover(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/api/v1/public/slots", nil))
	if rw.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rw.Code)
	}
	if !strings.Contains(buf.String(), `"panic":"boom"`) {
		t.Fatalf("expected panic to be logged: %s", buf.String())
	}
}

func TestValidRequestID(t *testing.T) {
	for id, want := range map[string]bool{
		"abc-123_x.y:z":          true,
		"":                       false,
		"has space":              false,
		"line\nbreak":            false,
		strings.Repeat("a", 128): true,
		strings.Repeat("a", 129): false,
	} {
		if got := ValidRequestID(id); got != want {
			t.Fatalf("ValidRequestID(%q) = %v, want %v", id, got, want)
		}
	}
}
