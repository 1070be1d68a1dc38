package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy lists what browser clients of the public booking API may send.
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// WithCORS answers preflights and decorates responses for allowed origins.
// An empty origin list disables it.
func WithCORS(p CORSPolicy) Middleware {
	origins := trimAll(p.AllowedOrigins)
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	static := http.Header{}
	if p.AllowCredentials {
		static.Set("Access-Control-Allow-Credentials", "true")
	}
	if m := trimAll(p.AllowedMethods); len(m) > 0 {
		static.Set("Access-Control-Allow-Methods", strings.Join(m, ", "))
	}
	if h := trimAll(p.AllowedHeaders); len(h) > 0 {
		static.Set("Access-Control-Allow-Headers", strings.Join(h, ", "))
	}
	if secs := int(p.MaxAge / time.Second); secs > 0 {
		static.Set("Access-Control-Max-Age", strconv.Itoa(secs))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allow := allowedOrigin(origin, origins, p.AllowCredentials)
			if allow == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allow)
			for k, v := range static {
				h.Set(k, v[0])
			}
			h.Add("Vary", "Origin")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// allowedOrigin returns the Access-Control-Allow-Origin value for origin, or
// "" when it is not allowed. A wildcard echoes the origin when credentials
// are allowed, since browsers reject "*" there.
func allowedOrigin(origin string, allowed []string, credentials bool) string {
	if origin == "" {
		return ""
	}
	for _, a := range allowed {
		switch {
		case a == "*" && credentials:
			return origin
		case a == "*":
			return "*"
		case strings.EqualFold(a, origin):
			return origin
		}
	}
	return ""
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
