package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCORSPreflight(t *testing.T) {
	called := false
	h := WithCORS(CORSPolicy{
		AllowedOrigins: []string{" https://book.example.com "},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		MaxAge:         10 * time.Minute,
	})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/public/slots", nil)
	req.Header.Set("Origin", "https://book.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)

	if called || rw.Code != http.StatusNoContent {
		t.Fatalf("expected preflight to short-circuit, got %d (called=%v)", rw.Code, called)
	}
	if rw.Header().Get("Access-Control-Allow-Origin") != "https://book.example.com" {
		t.Fatalf("unexpected allow origin %q", rw.Header().Get("Access-Control-Allow-Origin"))
	}
	if rw.Header().Get("Access-Control-Max-Age") != "600" || rw.Header().Get("Access-Control-Allow-Methods") != "GET, POST" {
		t.Fatalf("unexpected headers: %v", rw.Header())
	}
}

func TestCORSUnknownOriginPassesThrough(t *testing.T) {
	h := WithCORS(CORSPolicy{AllowedOrigins: []string{"https://book.example.com"}})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK || rw.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unexpected response: %d %v", rw.Code, rw.Header())
	}
}

func TestAllowedOriginWildcard(t *testing.T) {
	if got := allowedOrigin("https://a.example", []string{"*"}, false); got != "*" {
		t.Fatalf("expected *, got %q", got)
	}
	if got := allowedOrigin("https://a.example", []string{"*"}, true); got != "https://a.example" {
		t.Fatalf("expected echoed origin, got %q", got)
	}
}
