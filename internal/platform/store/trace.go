package store

import (
	"context"
	"strings"

	"likert/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent describes one finished statement
type QueryEvent struct {
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// Tracer receives an event per statement
type Tracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// LogTracer logs every statement at info, slow ones at warn. It is only installed
// when SQL logging was asked for, so it ignores the level of l
func LogTracer(l logger.Logger) Tracer {
	return logTracer{l.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()}
}

type logTracer struct{ log logger.Logger }

func (z logTracer) OnQuery(_ context.Context, ev QueryEvent) {
	evt := z.log.Info()
	if ev.Slow {
		evt = z.log.Warn()
	}
	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000).
		Bool("slow", ev.Slow).
		Str("sql", strings.Join(strings.Fields(ev.SQL), " ")).
		Interface("args", ev.Args).
		Err(ev.Err).
		Msg("pg query")
}
