package modkit

import (
	"context"

	"likert/internal/adapters/tabular/factory"
	"likert/internal/core/schema"
	"likert/internal/platform/config"
	"likert/internal/platform/logger"
	"likert/internal/platform/metrics"
)

// Closer releases what OpenDeps opened
type Closer = factory.Closer

// OpenDeps builds Deps from cfg (normally the LIKERT_ view): schema catalog from
// SCHEMA_FILE or the built-in one, the configured store and a fresh metrics registry
func OpenDeps(ctx context.Context, cfg config.Conf, log logger.Logger) (Deps, Closer, error) {
	cat := schema.Default()
	if path := cfg.MayString("SCHEMA_FILE", ""); path != "" {
		c, err := schema.LoadFile(path)
		if err != nil {
			return Deps{}, nil, err
		}
		cat = c
	}

	st, closeStore, err := factory.Open(ctx, factory.FromEnv(cfg), log)
	if err != nil {
		return Deps{}, nil, err
	}
	log.Info().
		Str("store", string(st.Driver())).
		Str("schema", cat.Current().Version).
		Bool("atomic_append", st.Caps().AtomicAppend).
		Msg("deps ready")

	d := Deps{
		Log:     log,
		Cfg:     cfg,
		Store:   st,
		Catalog: cat,
		Metrics: metrics.New(),
	}
	return d.WithDefaults(), closeStore, nil
}
