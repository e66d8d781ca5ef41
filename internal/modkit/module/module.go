// Package module is the contract every API module satisfies and the port
// lookups main uses to hand one module's ports to another
package module

import (
	phttp "likert/internal/platform/net/http"
)

// Module is what main mounts under /api/v1
type Module interface {
	Name() string
	MountRoutes(r phttp.Router)
	// Ports is the module's exported port bundle, nil when it exports none
	Ports() any
}
