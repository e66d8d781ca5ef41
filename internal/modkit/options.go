package modkit

import (
	"net/http"

	"likert/internal/modkit/httpkit"
	str "likert/internal/platform/strings"
)

// Option adjusts how a module is built; callers pass them to a module's New
// after the module's own defaults, so the caller wins
type Option func(*Built)

// WithName sets the module name used in logs and the port registry
func WithName(name string) Option { return func(b *Built) { b.Name = name } }

// WithPrefix sets the path the module mounts under, below /api/v1
func WithPrefix(prefix string) Option { return func(b *Built) { b.Prefix = prefix } }

// WithMiddlewares appends middleware that runs only for this module's routes
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}

// WithPorts hands the module ports owned by another module, e.g. the store
// port meta probes for readiness; the importing module defines T
func WithPorts[T any](p T) Option { return func(b *Built) { b.Ports = p } }

// WithRoutes registers extra routes after the module's own
func WithRoutes(fn func(httpkit.Router)) Option {
	return func(b *Built) { b.Extra = append(b.Extra, fn) }
}

// Built is the resolved option set
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
	Ports  any
	Extra  []func(httpkit.Router)
}

// Build applies opts in order
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		o(&b)
	}
	return b
}

// Base returns the routing half of a module: routes is mounted under Prefix
// behind Mw, followed by any WithRoutes extras. It panics on a blank name or
// a root prefix so a miswired module fails at startup
func (b Built) Base(routes func(httpkit.Router)) Base {
	return Base{
		name:   str.MustString(b.Name, "module name"),
		prefix: str.MustPrefix(b.Prefix),
		mw:     append([]func(http.Handler) http.Handler(nil), b.Mw...),
		routes: append([]func(httpkit.Router){routes}, b.Extra...),
	}
}

// Base implements Name and MountRoutes for modules that embed it
type Base struct {
	name   string
	prefix string
	mw     []func(http.Handler) http.Handler
	routes []func(httpkit.Router)
}

// Name is the module name
func (b Base) Name() string { return b.name }

// Prefix is the normalized mount path
func (b Base) Prefix() string { return b.prefix }

// MountRoutes mounts every route set under Prefix
func (b Base) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, b.prefix, b.mw, func(sub httpkit.Router) {
		for _, fn := range b.routes {
			if fn != nil {
				fn(sub)
			}
		}
	})
}
