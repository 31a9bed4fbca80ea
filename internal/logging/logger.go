// Package logging defines a minimal structured-logging interface used across
// the project together with slog and zap backed implementations.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "user logged in", "login", login, "user_id", id)
type Logger interface {
	// Debug logs diagnostic detail that is off in production.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Backend names accepted by New.
const (
	BackendSlog = "slog"
	BackendZap  = "zap"
)

// Options selects and tunes a Logger backend.
type Options struct {
	Backend string // "slog" (default) or "zap"
	Level   string // debug, info, warn, error
	Format  string // json (default) or text
	Service string
}

// New builds a Logger writing to w according to opts.
func New(w io.Writer, opts Options) (Logger, error) {
	var l Logger
	switch strings.ToLower(opts.Backend) {
	case "", BackendSlog:
		level, err := parseSlogLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		ho := &slog.HandlerOptions{Level: level}
		var h slog.Handler
		if strings.EqualFold(opts.Format, "text") {
			h = slog.NewTextHandler(w, ho)
		} else {
			h = slog.NewJSONHandler(w, ho)
		}
		l = NewSlogLogger(slog.New(h))
	case BackendZap:
		z, err := NewZapLogger(w, opts.Level, opts.Format)
		if err != nil {
			return nil, err
		}
		l = z
	default:
		return nil, fmt.Errorf("unknown log backend %q", opts.Backend)
	}

	if opts.Service != "" {
		l = l.With("service", opts.Service)
	}
	return l, nil
}

func parseSlogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
