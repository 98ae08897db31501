// Package logging sets up COCO's process-wide structured logger.
package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger from a level string ("debug",
// "info", "warn", "error"; empty defaults to "info") and whether to emit
// human-readable console output instead of JSON.
func Init(level string, pretty bool) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var out = os.Stdout
	if pretty {
		w := zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
		log.Logger = zerolog.New(w).With().Timestamp().Caller().Logger()
		return
	}
	log.Logger = zerolog.New(out).With().Timestamp().Caller().Logger()
}

type ctxKey struct{}

// WithTurnID returns a context carrying a turn/session identifier that
// subsequent loggers will attach to every record.
func WithTurnID(ctx context.Context, turnID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, turnID)
}

// For returns a logger enriched with the turn id from ctx, if any.
func For(ctx context.Context) *zerolog.Logger {
	l := log.Logger
	if ctx == nil {
		return &l
	}
	if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
		l = l.With().Str("turn_id", id).Logger()
	}
	return &l
}
