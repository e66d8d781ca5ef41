// Package middleware is the request pipeline: chi and go-chi/cors behind plain
// func(http.Handler) http.Handler values plus the in house access log, metrics,
// auth and panic recovery
package middleware

import (
	"net/http"
	"time"

	pstrings "likert/internal/platform/strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
)

// Middleware is the shape every entry in the stack has
type Middleware = func(http.Handler) http.Handler

// RequestID honours an inbound X-Request-Id or mints one
func RequestID() Middleware { return chimw.RequestID }

// RealIP rewrites RemoteAddr from X-Real-IP / X-Forwarded-For
func RealIP() Middleware { return chimw.RealIP }

// Timeout cancels the request context after d
func Timeout(d time.Duration) Middleware { return chimw.Timeout(d) }

// NoCache keeps browsers and proxies from caching stats and exports
func NoCache() Middleware { return chimw.NoCache }

// StripSlashes serves /survey/stats/ as /survey/stats
func StripSlashes() Middleware { return chimw.StripSlashes }

// Heartbeat answers GET path with 200 before routing
func Heartbeat(path string) Middleware { return chimw.Heartbeat(path) }

// Compress gzips or deflates text responses at level (see compress/flate)
func Compress(level int) Middleware {
	c := chimw.NewCompressor(level, "application/json", "text/csv", "text/html", "text/plain")
	return c.Handler
}

// CORSOptions is the part of go-chi/cors the API needs
type CORSOptions struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// CORS lets a separately hosted survey page call the API; unset methods and
// headers default to what the survey endpoints accept
func CORS(o CORSOptions) Middleware {
	return chicors.Handler(chicors.Options{
		AllowedOrigins: o.AllowedOrigins,
		AllowedMethods: pstrings.IfEmpty(o.AllowedMethods, []string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		AllowedHeaders: pstrings.IfEmpty(o.AllowedHeaders, []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"}),
		ExposedHeaders: []string{"Content-Disposition", "X-Request-Id"},
		MaxAge:         o.MaxAge,
	})
}
