package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	perr "likert/internal/platform/errors"
	"likert/internal/platform/logger"
	pnet "likert/internal/platform/net"
)

// Recover turns a handler panic into a logged stack and a 500 written by fail
// http.ErrAbortHandler is re-raised so net/http can drop the connection
func Recover(fail func(w http.ResponseWriter, r *http.Request, err error)) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				logger.C(r.Context()).Error().
					Str("panic", fmt.Sprint(v)).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				if id := pnet.RequestID(r.Context()); id != "" {
					w.Header().Set("X-Request-Id", id)
				}
				fail(w, r, perr.PanicErrf("internal error"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
