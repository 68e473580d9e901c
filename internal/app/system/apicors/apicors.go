// Package apicors provides CORS middleware for the public, cookie-less API
// endpoints: page content, the catalog, quote estimates and submissions, and
// the contact form. These endpoints never read the session, so credentials
// are not allowed and no CSRF token is required.
package apicors

import (
	"net/http"
	"strings"
)

const (
	allowMethods = "GET, POST, OPTIONS"
	allowHeaders = "Content-Type, Accept"
)

// Middleware returns CORS middleware for the public API.
//
// With no origins (or a single "*") any origin is allowed. Otherwise only the
// listed origins are echoed back and other origins get no CORS headers, which
// the browser treats as a refusal. Preflight OPTIONS requests end here with 204.
//
// Usage in routes.go:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(apicors.Middleware(appCfg.PublicAPIOrigins...))
//	    r.Mount("/api/quotes", quotesfeature.PublicRoutes(quotesHandler))
//	})
func Middleware(allowedOrigins ...string) func(http.Handler) http.Handler {
	any := len(allowedOrigins) == 0
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			any = true
			continue
		}
		if o != "" {
			originSet[o] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case any:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "":
				if _, ok := originSet[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
				}
				w.Header().Add("Vary", "Origin")
			}

			w.Header().Set("Access-Control-Allow-Methods", allowMethods)
			w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
