package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy lists what browsers on other origins may do against the API.
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// corsHeaders holds the policy rendered into header values once at startup.
type corsHeaders struct {
	origins     map[string]struct{}
	anyOrigin   bool
	credentials bool
	methods     string
	headers     string
	exposed     string
	maxAge      string
}

func compileCORS(p CORSPolicy) corsHeaders {
	c := corsHeaders{
		origins:     map[string]struct{}{},
		credentials: p.AllowCredentials,
		methods:     joinTrimmed(p.AllowedMethods),
		headers:     joinTrimmed(p.AllowedHeaders),
		exposed:     joinTrimmed(p.ExposedHeaders),
	}
	for _, o := range p.AllowedOrigins {
		o = strings.ToLower(strings.TrimSpace(o))
		switch o {
		case "":
		case "*":
			c.anyOrigin = true
		default:
			c.origins[o] = struct{}{}
		}
	}
	if secs := int(p.MaxAge / time.Second); secs > 0 {
		c.maxAge = strconv.Itoa(secs)
	}
	return c
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin.
// A wildcard is reflected as the concrete origin when credentials are allowed.
func (c corsHeaders) allowOrigin(origin string) (string, bool) {
	if _, ok := c.origins[strings.ToLower(origin)]; ok {
		return origin, true
	}
	if !c.anyOrigin {
		return "", false
	}
	if c.credentials {
		return origin, true
	}
	return "*", true
}

func (c corsHeaders) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		value, ok := c.allowOrigin(origin)
		if origin == "" || !ok {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("Access-Control-Allow-Origin", value)
		h.Add("Vary", "Origin")
		if c.credentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		setIfNotEmpty(h, "Access-Control-Expose-Headers", c.exposed)

		if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
			next.ServeHTTP(w, r)
			return
		}
		setIfNotEmpty(h, "Access-Control-Allow-Methods", c.methods)
		setIfNotEmpty(h, "Access-Control-Allow-Headers", c.headers)
		setIfNotEmpty(h, "Access-Control-Max-Age", c.maxAge)
		h.Add("Vary", "Access-Control-Request-Method")
		h.Add("Vary", "Access-Control-Request-Headers")
		w.WriteHeader(http.StatusNoContent)
	})
}

// WithCORS answers preflight requests and decorates responses for allowed
// origins. An empty origin list disables it.
func WithCORS(p CORSPolicy) Middleware {
	if len(p.AllowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return compileCORS(p).wrap
}

func joinTrimmed(values []string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, ", ")
}

func setIfNotEmpty(h http.Header, key, value string) {
	if value != "" {
		h.Set(key, value)
	}
}
