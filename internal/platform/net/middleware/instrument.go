package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// HTTPRecorder receives one observation per served request
type HTTPRecorder interface {
	HTTP(method, route string, status int, d time.Duration)
}

// Instrument reports every request to rec keyed by the matched route pattern so
// path parameters never explode label cardinality. A nil rec disables it
func Instrument(rec HTTPRecorder) Middleware {
	return func(next http.Handler) http.Handler {
		if rec == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			rec.HTTP(r.Method, routePattern(r), status, time.Since(start))
		})
	}
}
