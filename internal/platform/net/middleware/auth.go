package middleware

import (
	"net/http"

	"likert/internal/platform/logger"
	pnet "likert/internal/platform/net"
)

// AuthPort resolves the caller of a request
type AuthPort interface {
	Parse(r *http.Request) (actor string, err error)
}

// Auth lets a request through only when p resolves an actor, which is then on the
// context for pnet.Actor. fail writes the rejection, keeping envelope types out of here
func Auth(p AuthPort, fail func(w http.ResponseWriter, r *http.Request, err error)) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := p.Parse(r)
			if err != nil {
				logger.C(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("auth rejected")
				fail(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(pnet.WithActor(r.Context(), actor)))
		})
	}
}
