package http

import "net/http"

// Handler is the plain handler shape every module registers
type Handler = func(http.ResponseWriter, *http.Request)

// Router is the mounting surface modules see; the survey API only reads and
// appends, so the verb set stays at GET and POST
type Router interface {
	Get(path string, h Handler)
	Post(path string, h Handler)
	Handle(path string, h http.Handler)
	Use(mw ...func(http.Handler) http.Handler)
	Group(fn func(Router))
	Route(pattern string, fn func(Router))

	// Mux is the handler to serve for this router and everything below it
	Mux() http.Handler
}
