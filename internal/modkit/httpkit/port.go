package httpkit

import (
	"crypto/subtle"
	"net/http"
	"strings"

	perrs "likert/internal/platform/errors"
)

// TokenFunc resolves a bearer token to the operator it belongs to
type TokenFunc func(token string) (actor string, err error)

// StaticToken accepts exactly secret as actor. With no secret configured every
// token is forbidden, so an unset ADMIN_TOKEN can never open the route
func StaticToken(secret, actor string) TokenFunc {
	return func(token string) (string, error) {
		switch {
		case secret == "":
			return "", perrs.Forbiddenf("admin token not configured")
		case subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1:
			return "", perrs.Unauthorizedf("invalid bearer token")
		}
		return actor, nil
	}
}

// Port is a middleware.AuthPort reading "Authorization: Bearer <token>"
type Port struct {
	resolve TokenFunc
}

// NewPortFunc builds a Port around fn
func NewPortFunc(fn TokenFunc) *Port { return &Port{resolve: fn} }

// Parse returns the actor for the request's bearer token. Malformed headers are
// unauthorized; errors from the TokenFunc keep their code when they have one
func (p *Port) Parse(r *http.Request) (string, error) {
	scheme, token, _ := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	token = strings.TrimSpace(token)
	if !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	if p == nil || p.resolve == nil {
		return "", perrs.Unauthorizedf("invalid bearer token")
	}

	actor, err := p.resolve(token)
	if err == nil {
		return actor, nil
	}
	if _, ok := perrs.As(err); ok {
		return "", err
	}
	return "", perrs.Unauthorizedf("invalid bearer token")
}
