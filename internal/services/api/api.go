// Package api provides the HTTP API for the application
package api

import (
	"time"

	"likert/internal/core/version"
	"likert/internal/platform/config"
	phttp "likert/internal/platform/net/http"

	"likert/internal/modkit"
	"likert/internal/modkit/httpkit"
	"likert/internal/modkit/module"
	"likert/internal/modkit/swaggerkit"

	"likert/internal/services/dashboard"
	metamod "likert/internal/services/meta/module"
	respmod "likert/internal/services/responses/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Deps           modkit.Deps
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the API, the dashboard page and the operator endpoints onto r
func Mount(r phttp.Router, opt Options) {
	deps := opt.Deps.WithDefaults()
	if deps.Cfg == (config.Conf{}) {
		deps.Cfg = opt.Config
	}

	stack := httpkit.CommonStack(httpkit.StackOptions{
		Metrics:     deps.Metrics,
		CORSOrigins: opt.Config.MayCSV("CORS_ORIGINS", nil),
		Timeout:     opt.Config.MayDuration("HTTP_TIMEOUT", 30*time.Second),
		Slow:        opt.Config.MayDuration("HTTP_SLOW", time.Second),
	})

	// responses owns the store; meta reads its store port for readiness
	responses := respmod.NewWithOptions(deps, respmod.FromConfig(opt.Config))
	meta := metamod.New(deps, modkit.WithPorts(metamod.Ports{
		Store: module.MustPortsOf[respmod.StorePort](responses),
	}))
	mods := []module.Module{meta, responses}

	httpkit.MountAPIV1(r, stack, func(api httpkit.Router) {
		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
		}
	})

	// form + results page at the root, same middleware as the API
	r.Group(func(g httpkit.Router) {
		g.Use(stack...)
		dashboard.Register(g, responses.Service(), dashboard.Options{
			ContactURL: opt.Config.MayString("CONTACT_URL", ""),
		})
	})

	swaggerkit.Mount(r, swaggerkit.Options{
		Enabled:  opt.EnableSwagger,
		Mutators: []swaggerkit.SpecMutator{swaggerkit.InfoVersion(version.Info("").Version)},
	})
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)
	r.Handle("/metrics", deps.Metrics.Handler())
}
