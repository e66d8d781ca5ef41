// Package module mounts health, readiness and version under /meta
package module

import (
	"time"

	modkit "likert/internal/modkit"
	"likert/internal/modkit/httpkit"
	metahttp "likert/internal/services/meta/http"
)

// Ports are injected with modkit.WithPorts; Store is normally the responses store port
type Ports struct {
	Store metahttp.Pinger
}

// Module is the meta module; it exports no ports
type Module struct {
	modkit.Base
}

// New reads SERVICE_NAME and READY_TIMEOUT from deps.Cfg. Without a Store port
// readiness reports degraded instead of probing
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("meta"), modkit.WithPrefix("/meta")}, opts...)...)

	d := metahttp.Deps{
		ServiceName:  deps.Cfg.MayString("SERVICE_NAME", "likert-api"),
		StartedAt:    time.Now(),
		ReadyTimeout: deps.Cfg.MayDuration("READY_TIMEOUT", 2*time.Second),
	}
	if deps.Store != nil {
		d.Driver = string(deps.Store.Driver())
	}
	if p, ok := b.Ports.(Ports); ok {
		d.Store = p.Store
	}

	return &Module{Base: b.Base(func(r httpkit.Router) { metahttp.Register(r, d) })}
}

// Ports is always nil
func (m *Module) Ports() any { return nil }
