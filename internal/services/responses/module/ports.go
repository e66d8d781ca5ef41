package module

import (
	"context"

	"likert/internal/services/responses/domain"
)

// Ports is what other modules and the binaries reach through the registry
type Ports struct {
	Service domain.ServicePort
	Store   StorePort
}

// StorePort reports whether the backing store answers
type StorePort interface {
	Ping(ctx context.Context) error
}

// Ports returns the Ports bundle
func (m *Module) Ports() any { return m.ports }
