package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy defines the CORS headers to emit for matching origins.
// An origin entry may be "*" or use a leading subdomain wildcard such as
// "https://*.clinic.example".
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

var (
	defaultCORSMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	defaultCORSHeaders = []string{"Authorization", "Content-Type", RequestIDHeader, "X-Clinic-Id"}
	defaultCORSExposed = []string{RequestIDHeader}
)

type corsHeaders struct {
	methods string
	headers string
	exposed string
	maxAge  string
}

func compileCORS(cfg CORSPolicy) corsHeaders {
	pick := func(v, fallback []string) string {
		if v = normalizeList(v); len(v) == 0 {
			v = fallback
		}
		return strings.Join(v, ", ")
	}
	out := corsHeaders{
		methods: pick(cfg.AllowedMethods, defaultCORSMethods),
		headers: pick(cfg.AllowedHeaders, defaultCORSHeaders),
		exposed: pick(cfg.ExposedHeaders, defaultCORSExposed),
	}
	if secs := int(cfg.MaxAge.Seconds()); secs > 0 {
		out.maxAge = strconv.Itoa(secs)
	}
	return out
}

// WithCORS adds CORS handling. With no allowed origins it returns nil, which
// Chain skips.
func WithCORS(cfg CORSPolicy) Middleware {
	origins := normalizeList(cfg.AllowedOrigins)
	if len(origins) == 0 {
		return nil
	}
	compiled := compileCORS(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Origin")
			origin := r.Header.Get("Origin")
			allowOrigin, ok := matchOrigin(origin, origins, cfg.AllowCredentials)
			if origin == "" || !ok {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowOrigin)
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			h.Set("Access-Control-Expose-Headers", compiled.exposed)

			if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
				next.ServeHTTP(w, r)
				return
			}
			h.Set("Access-Control-Allow-Methods", compiled.methods)
			h.Set("Access-Control-Allow-Headers", compiled.headers)
			if compiled.maxAge != "" {
				h.Set("Access-Control-Max-Age", compiled.maxAge)
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func matchOrigin(origin string, allowed []string, allowCredentials bool) (string, bool) {
	for _, candidate := range allowed {
		switch {
		case candidate == "*":
			if allowCredentials {
				return origin, true
			}
			return "*", true
		case strings.EqualFold(candidate, origin):
			return origin, true
		case matchWildcard(strings.ToLower(candidate), strings.ToLower(origin)):
			return origin, true
		}
	}
	return "", false
}

// matchWildcard handles "scheme://*.domain" entries. The wildcard covers at
// least one label and never the bare domain.
func matchWildcard(pattern, origin string) bool {
	scheme, rest, ok := strings.Cut(pattern, "://*.")
	if !ok {
		return false
	}
	prefix := scheme + "://"
	if !strings.HasPrefix(origin, prefix) {
		return false
	}
	host := strings.TrimPrefix(origin, prefix)
	return strings.HasSuffix(host, "."+rest) && len(host) > len(rest)+1
}
