// Package modkit provides module wiring and core deps
package modkit

import (
	"likert/internal/adapters/tabular"
	"likert/internal/core/schema"
	"likert/internal/platform/config"
	"likert/internal/platform/logger"
	"likert/internal/platform/metrics"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf

	// Store is the tabular store every response read and write goes through
	Store tabular.Adapter
	// Catalog holds the current form revision and the ones before it
	Catalog *schema.Catalog
	// Metrics is optional; a nil *Metrics records nothing
	Metrics *metrics.Metrics
	// Clock stamps submissions, a process wide monotonic clock when nil
	Clock schema.Clock
}

// WithDefaults fills the optional deps a module needs to run
func (d Deps) WithDefaults() Deps {
	if d.Catalog == nil {
		d.Catalog = schema.Default()
	}
	if d.Clock == nil {
		d.Clock = schema.NewMonotonicClock(nil)
	}
	return d
}
