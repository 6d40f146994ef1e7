// Package logger builds the application slog.Logger with rotation, masking
// and optional Sentry fan-out.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	slogsentry "github.com/samber/slog-sentry/v2"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls how the application logger is assembled.
type Options struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	SentryEnabled bool
}

// New builds the root logger. Records always go to stdout or the rotated
// file; errors are additionally fanned out to Sentry when enabled.
func New(opts Options) *slog.Logger {
	var out io.Writer = os.Stdout
	if opts.File != "" {
		out = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
	}

	handlerOpts := &slog.HandlerOptions{Level: parseLevel(opts.Level)}

	var base slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		base = slog.NewTextHandler(out, handlerOpts)
	} else {
		base = slog.NewJSONHandler(out, handlerOpts)
	}

	handler := slog.Handler(NewMaskingHandler(base))

	if opts.SentryEnabled {
		sentryHandler := slogsentry.Option{Level: slog.LevelError}.NewSentryHandler()
		handler = newFanoutHandler(handler, sentryHandler)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
