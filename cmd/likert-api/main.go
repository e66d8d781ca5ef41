// @title         Likert API
// @version       0.1.0
// @description   Survey submission, listing, statistics and CSV export
// @BasePath      /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"likert/internal/modkit"
	"likert/internal/platform/config"
	"likert/internal/platform/logger"
	phttp "likert/internal/platform/net/http"

	"likert/internal/services/api"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// every key lives under LIKERT_*
	cfg := config.New().Prefix("LIKERT_")

	// bring up logging early
	l := logger.Get()

	// store, schema catalog and metrics
	deps, closeStore, err := modkit.OpenDeps(ctx, cfg, *l)
	if err != nil {
		l.Fatal().Err(err).Msg("open deps failed")
	}
	defer func() {
		if err := closeStore(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// http server (reads LIKERT_API_PORT)
	srv := phttp.NewServer(cfg)

	api.Mount(srv.Router(), api.Options{
		Config:         cfg,
		Deps:           deps,
		EnableSwagger:  cfg.MayBool("SWAGGER", true),
		EnableProfiler: cfg.MayBool("PROFILER", false),
	})

	if err := srv.Run(ctx); err != nil {
		l.Error().Err(err).Msg("http server stopped")
	}
}
