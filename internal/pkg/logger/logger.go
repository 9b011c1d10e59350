package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config represents logger configuration
type Config struct {
	Level       string // debug, info, warn, error
	Environment string // development, production, test
	Output      io.Writer
}

// Init configures the global logger. Development gets console output, everything
// else JSON lines.
func Init(cfg Config) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	if cfg.Environment == "development" || cfg.Environment == "dev" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}).
			With().Timestamp().Caller().Logger()
		return
	}

	log.Logger = zerolog.New(out).With().Timestamp().Caller().Logger()
}

type contextKey string

// ContextKey is the key used to store a request-scoped logger in context
const ContextKey contextKey = "logger"

// FromContext returns the logger from context or the global logger
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ContextKey).(*zerolog.Logger); ok {
			return l
		}
	}
	return &log.Logger
}

// WithContext returns a context with the logger attached
func WithContext(ctx context.Context, l *zerolog.Logger) context.Context {
	return context.WithValue(ctx, ContextKey, l)
}

type requestIDKey struct{}

// WithRequestID stores the request id and a logger carrying it in ctx
func WithRequestID(ctx context.Context, id string) context.Context {
	l := log.Logger.With().Str("request_id", id).Logger()
	ctx = context.WithValue(ctx, requestIDKey{}, id)
	return WithContext(ctx, &l)
}

// RequestID returns the request id stored in ctx, or "unknown"
func RequestID(ctx context.Context) string {
	if ctx != nil {
		if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
			return id
		}
	}
	return "unknown"
}
