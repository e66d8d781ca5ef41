package http

import (
	stdhttp "net/http"
	"strings"

	mw "github.com/go-chi/chi/v5/middleware"
)

// MountProfiler exposes net/http/pprof under prefix, e.g. "/debug"
// nothing is mounted unless enabled
func MountProfiler(r Router, prefix string, enabled bool) {
	if !enabled {
		return
	}
	prefix = "/" + strings.Trim(prefix, "/")
	h := stdhttp.StripPrefix(prefix, mw.Profiler())
	serve := func(w stdhttp.ResponseWriter, req *stdhttp.Request) { h.ServeHTTP(w, req) }

	r.Get(prefix, serve)
	r.Get(prefix+"/*", serve)
}
