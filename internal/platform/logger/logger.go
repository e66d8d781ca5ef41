// Package logger owns the process zerolog logger and the request scoped children
// derived from it
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"likert/internal/platform/config/raw"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger is the logging type passed around the codebase
type Logger = zerolog.Logger

// Options configures the root logger
type Options struct {
	Level       string // trace..panic, debug when unknown
	Format      string // console or json
	Service     string
	Writer      io.Writer // stdout when nil
	WithCaller  bool
	SampleEvery int // keep one event in N when N > 1
	Fields      map[string]string
}

// FromEnv reads LIKERT_LOG_{LEVEL,FORMAT,SERVICE,CALLER,SAMPLE_EVERY}
func FromEnv() Options {
	rc := raw.New().Prefix("LIKERT_LOG_")
	return Options{
		Level:       strings.ToLower(rc.Get("LEVEL", "info")),
		Format:      strings.ToLower(rc.Get("FORMAT", "console")),
		Service:     rc.Get("SERVICE", ""),
		WithCaller:  rc.GetBool("CALLER", false),
		SampleEvery: rc.GetInt("SAMPLE_EVERY", 0),
	}
}

var (
	initOnce sync.Once
	root     Logger
)

// Init builds the root logger; only the first call has any effect
func Init(opt Options) {
	initOnce.Do(func() { root = build(opt) })
}

// Get returns the root logger, initialising it from the environment on first use
func Get() *Logger {
	Init(FromEnv())
	return &root
}

func build(opt Options) Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	w := opt.Writer
	if w == nil {
		w = os.Stdout
	}
	if opt.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	lc := zerolog.New(w).Level(parseLevel(opt.Level)).With().Timestamp()
	if bi, ok := debug.ReadBuildInfo(); ok {
		lc = lc.Str("go_version", bi.GoVersion)
	}
	if opt.Service != "" {
		lc = lc.Str("service", opt.Service)
	}
	for k, v := range opt.Fields {
		lc = lc.Str(k, v)
	}
	if opt.WithCaller {
		lc = lc.Caller()
	}

	l := lc.Logger()
	if opt.SampleEvery > 1 {
		l = l.Sample(&zerolog.BasicSampler{N: uint32(opt.SampleEvery)})
	}
	return l
}

func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.DebugLevel
	}
	return lvl
}

type ctxKey int

const (
	keyRequestID ctxKey = iota
	keyRemoteIP
)

// WithRequest stores the request id and remote address for C to pick up
func WithRequest(ctx context.Context, reqID, remoteIP string) context.Context {
	if reqID != "" {
		ctx = context.WithValue(ctx, keyRequestID, reqID)
	}
	if remoteIP != "" {
		ctx = context.WithValue(ctx, keyRemoteIP, remoteIP)
	}
	return ctx
}

// C returns a child of the root logger carrying request_id and remote_ip from ctx
func C(ctx context.Context) *Logger {
	lc := Get().With()
	if v, ok := ctx.Value(keyRequestID).(string); ok {
		lc = lc.Str("request_id", v)
	}
	if v, ok := ctx.Value(keyRemoteIP).(string); ok {
		lc = lc.Str("remote_ip", v)
	}
	l := lc.Logger()
	return &l
}

// Named returns a child of the root logger tagged with component
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	l := Get().With().Str("component", component).Logger()
	return &l
}
