package httpkit

import (
	"net/http"

	phttp "likert/internal/platform/net/http"
)

type mounted struct {
	verb, path string
	h          http.Handler
}

// fakeRouter records everything mounted on it; Route and Group hand back itself
type fakeRouter struct {
	prefixes  []string
	groups    int
	useCalls  int
	lastMWLen int
	mws       []func(http.Handler) http.Handler
	routes    []mounted
}

func (f *fakeRouter) add(verb, path string, h http.Handler) {
	f.routes = append(f.routes, mounted{verb, path, h})
}

func (f *fakeRouter) Route(prefix string, fn func(Router)) {
	f.prefixes = append(f.prefixes, prefix)
	fn(f)
}

func (f *fakeRouter) Group(fn func(Router)) {
	f.groups++
	fn(f)
}

func (f *fakeRouter) Use(mw ...func(http.Handler) http.Handler) {
	f.useCalls++
	f.lastMWLen = len(mw)
	f.mws = append(f.mws, mw...)
}

func (f *fakeRouter) Handle(path string, h http.Handler) { f.add("HANDLE", path, h) }
func (f *fakeRouter) Get(path string, h phttp.Handler)   { f.add("GET", path, http.HandlerFunc(h)) }
func (f *fakeRouter) Post(path string, h phttp.Handler)  { f.add("POST", path, http.HandlerFunc(h)) }
func (f *fakeRouter) Mux() http.Handler                  { return http.NewServeMux() }

// serve runs the only route registered for verb+path through the recorded middleware
func (f *fakeRouter) serve(verb, path string, r *http.Request, w http.ResponseWriter) bool {
	for _, m := range f.routes {
		if m.verb != verb || m.path != path {
			continue
		}
		h := m.h
		for i := len(f.mws) - 1; i >= 0; i-- {
			h = f.mws[i](h)
		}
		h.ServeHTTP(w, r)
		return true
	}
	return false
}
