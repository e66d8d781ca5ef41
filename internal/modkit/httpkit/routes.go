package httpkit

import (
	"net/http"
	"strings"

	"likert/internal/platform/net/middleware"
)

// Get mounts a handler that reads no body
func Get(r Router, path string, h func(*http.Request) (any, error)) { r.Get(path, Call(h)) }

// Post mounts a POST handler that reads no body
func Post(r Router, path string, h func(*http.Request) (any, error)) { r.Post(path, Call(h)) }

// PostJSON mounts a POST handler whose body is bound and validated into T first
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Post(path, JSON(h))
}

// Protected mounts the routes fn registers behind bearer auth resolved by p
func Protected(r Router, p middleware.AuthPort, fn func(Router)) {
	r.Group(func(g Router) {
		g.Use(Auth(p))
		fn(g)
	})
}

// MountUnder mounts a subrouter at prefix with mw applied to everything below it
func MountUnder(r Router, prefix string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route(prefix, func(sub Router) {
		if len(mw) > 0 {
			sub.Use(mw...)
		}
		mount(sub)
	})
}

// MountAPI mounts under /api/<version>, e.g. MountAPI(r, "v1", stack, mountModules)
func MountAPI(r Router, version string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	MountUnder(r, "/api/"+strings.Trim(version, "/"), mw, mount)
}

// MountAPIV1 is MountAPI for the current version
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	MountAPI(r, "v1", mw, mount)
}
