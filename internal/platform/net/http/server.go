package http

import (
	"context"
	"errors"
	"net"
	stdhttp "net/http"
	"time"

	"likert/internal/platform/config"
	"likert/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// Server owns the chi mux and the listener lifecycle for one process
type Server struct {
	addr  string
	grace time.Duration
	mux   *chi.Mux
	srv   *stdhttp.Server
}

// NewServer reads API_PORT (default :4000) and SHUTDOWN_GRACE (default 10s) from cfg
func NewServer(cfg config.Conf) *Server {
	m := chi.NewRouter()
	s := &Server{
		addr:  cfg.MayString("API_PORT", ":4000"),
		grace: cfg.MayDuration("SHUTDOWN_GRACE", 10*time.Second),
		mux:   m,
	}
	s.srv = &stdhttp.Server{
		Addr:              s.addr,
		Handler:           m,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

// Router is the mounting surface for modules
func (s *Server) Router() Router { return AdaptChi(s.mux) }

// Addr is the configured listen address
func (s *Server) Addr() string { return s.addr }

// Run listens on Addr and blocks until the server stops
// once ctx is done in-flight requests get up to SHUTDOWN_GRACE to finish
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run over a caller supplied listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log := logger.Named("http")
	log.Info().Str("addr", ln.Addr().String()).Msg("http listening")

	errc := make(chan error, 1)
	go func() { errc <- s.srv.Serve(ln) }()

	select {
	case err := <-errc:
		if errors.Is(err, stdhttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Dur("grace", s.grace).Msg("http draining")
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.grace)
	defer cancel()
	if err := s.srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for active ones until ctx is done
func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }
