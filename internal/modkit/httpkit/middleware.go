package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	phttp "likert/internal/platform/net/http"
	"likert/internal/platform/net/middleware"
)

// StackOptions tunes CommonStack; the zero value is usable
type StackOptions struct {
	// Metrics receives one observation per request; nil disables it
	Metrics middleware.HTTPRecorder
	// CORSOrigins enables CORS for the listed origins; empty disables it
	CORSOrigins []string
	// Timeout bounds each request, 30s when zero
	Timeout time.Duration
	// Slow marks access log lines at warn level, 1s when zero
	Slow time.Duration
}

// CommonStack returns the baseline middleware slice, outermost first
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Slow <= 0 {
		o.Slow = time.Second
	}
	stack := []func(http.Handler) http.Handler{
		// tracing / correlation
		middleware.RealIP(),
		middleware.RequestID(),

		// observability, outside recovery so panics are still counted as 500s
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: o.Slow}),
		middleware.Instrument(o.Metrics),

		// safety
		middleware.Recover(phttp.RespondError),
		middleware.NoCache(),
		middleware.Heartbeat("/ping"),
	}
	if len(o.CORSOrigins) > 0 {
		stack = append(stack, middleware.CORS(middleware.CORSOptions{AllowedOrigins: o.CORSOrigins}))
	}
	return append(stack,
		middleware.Compress(flate.BestSpeed),
		middleware.StripSlashes(),
		middleware.Timeout(o.Timeout),
	)
}

// Auth wires the auth middleware to the platform error envelope
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.Auth(p, phttp.RespondError)
}
