// Package module wires survey responses into the API: it builds the repository
// over deps.Store, the service on top, and mounts the routes under /survey
package module

import (
	modkit "likert/internal/modkit"
	"likert/internal/modkit/httpkit"
	"likert/internal/platform/net/middleware"
	rhttp "likert/internal/services/responses/http"
	rrepo "likert/internal/services/responses/repo"
	rsvc "likert/internal/services/responses/service"
)

// Module is the responses module
type Module struct {
	modkit.Base

	svc   rsvc.Service
	ports Ports
}

// New builds the module with settings read from deps.Cfg
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	return NewWithOptions(deps, FromConfig(deps.Cfg), opts...)
}

// NewWithOptions is New with explicit settings
func NewWithOptions(deps modkit.Deps, o Options, opts ...modkit.Option) *Module {
	deps = deps.WithDefaults()
	b := modkit.Build(append([]modkit.Option{modkit.WithName("responses"), modkit.WithPrefix("/survey")}, opts...)...)

	log := deps.Log.With().Str("component", b.Name).Logger()
	repo := rrepo.New(deps.Store, deps.Catalog,
		rrepo.WithStoreTimeout(o.StoreTimeout),
		rrepo.WithCacheTTL(o.CacheTTL),
		rrepo.WithMetrics(deps.Metrics),
		rrepo.WithLogger(log),
	)
	svc := rsvc.New(repo, deps.Clock, deps.Metrics)

	var admin middleware.AuthPort
	if o.AdminToken != "" {
		admin = httpkit.NewPortFunc(httpkit.StaticToken(o.AdminToken, "admin"))
	} else {
		log.Warn().Msg("ADMIN_TOKEN unset, repair endpoint not mounted")
	}

	return &Module{
		Base:  b.Base(func(r httpkit.Router) { rhttp.Register(r, svc, admin) }),
		svc:   svc,
		ports: Ports{Service: svc, Store: repo},
	}
}

// Service is the survey service, shared with the dashboard
func (m *Module) Service() rsvc.Service { return m.svc }
