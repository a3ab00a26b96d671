package main

import (
	"context"
	"embed"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"unicode"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/md-rashed-zaman/apptbook/libs/auth"
	"github.com/md-rashed-zaman/apptbook/libs/httpx"
)

//go:embed assets/gateway.v1.yaml
var openAPISpec embed.FS

// Identity headers the booking service trusts. Only the gateway may set them.
const (
	headerUserID         = "X-User-Id"
	headerOrganizationID = "X-Organization-Id"
	headerRole           = "X-Role"
	headerUserEmail      = "X-User-Email"
	headerUserFirstName  = "X-User-First-Name"
	headerUserLastName   = "X-User-Last-Name"
)

var identityHeaders = []string{
	headerUserID, headerOrganizationID, headerRole,
	headerUserEmail, headerUserFirstName, headerUserLastName,
}

// bookingPrefixes are the booking-service routes exposed through the gateway.
var bookingPrefixes = []string{
	"/api/v1/appointments",
	"/api/v1/services",
	"/api/v1/business-hours",
	"/api/v1/organizations",
}

type tokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Claims, error)
}

func newBookingProxy(target *url.URL, logger *slog.Logger) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			if errors.Is(err, context.Canceled) {
				return
			}
			logger.Error("upstream request failed",
				"upstream", target.Host,
				"path", r.URL.Path,
				"request_id", httpx.RequestIDFromContext(r.Context()),
				"err", err,
			)
			httpx.WriteError(w, http.StatusBadGateway, "upstream unavailable")
		},
	}
}

// registerRoutes mounts the authenticated booking routes. limit runs after
// authentication so requests are counted per user.
func registerRoutes(mux *http.ServeMux, booking http.Handler, verifier tokenVerifier, limit httpx.Middleware) {
	protected := requireAuth(limit(booking), verifier)
	for _, prefix := range bookingPrefixes {
		mux.Handle(prefix, protected)
		mux.Handle(prefix+"/", protected)
	}

	mux.HandleFunc("GET /openapi", func(w http.ResponseWriter, _ *http.Request) {
		data, err := openAPISpec.ReadFile("assets/gateway.v1.yaml")
		if err != nil {
			httpx.WriteError(w, http.StatusInternalServerError, "openapi not available")
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	})
}

func stripIdentity(h http.Header) {
	for _, name := range identityHeaders {
		h.Del(name)
	}
}

func requireAuth(next http.Handler, verifier tokenVerifier) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stripIdentity(r.Header)

		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			httpx.WriteError(w, http.StatusUnauthorized, "missing or invalid Authorization header")
			return
		}
		claims, err := verifier.Verify(r.Context(), token)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		r.Header.Set(headerUserID, claims.Subject)
		if claims.OrganizationID != "" {
			r.Header.Set(headerOrganizationID, claims.OrganizationID)
		}
		r.Header.Set(headerRole, strings.ToUpper(strings.TrimSpace(claims.Role)))
		setIfPresent(r.Header, headerUserEmail, claims.Email)
		setIfPresent(r.Header, headerUserFirstName, claims.FirstName)
		setIfPresent(r.Header, headerUserLastName, claims.LastName)
		next.ServeHTTP(w, r)
	})
}

// setIfPresent forwards a profile claim. Values with control characters are
// dropped rather than forwarded.
func setIfPresent(h http.Header, key, value string) {
	value = strings.TrimSpace(value)
	if value == "" || strings.ContainsFunc(value, unicode.IsControl) {
		return
	}
	h.Set(key, value)
}
