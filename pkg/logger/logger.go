package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options tune where logs go. The zero value logs JSON to stdout.
type Options struct {
	// File, when set, tees logs into a size-rotated file.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var rotator *lumberjack.Logger

// New returns a production-friendly structured logger.
// No business logic should depend on logging implementation details.
func New(appEnv string, opts ...Options) *slog.Logger {
	level := slog.LevelInfo
	if appEnv == "local" || appEnv == "dev" {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stdout
	if len(opts) > 0 && opts[0].File != "" {
		o := opts[0]
		rotator = &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    orDefault(o.MaxSizeMB, 100),
			MaxBackups: orDefault(o.MaxBackups, 5),
			MaxAge:     orDefault(o.MaxAgeDays, 14),
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotator)
	}

	h := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

type ctxKey struct{}

// With stores a logger in context.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From gets a logger from context, falling back to slog.Default().
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}

// ShutdownFlush closes the rotating file, if one was opened.
func ShutdownFlush(_ context.Context, _ time.Duration) error {
	if rotator == nil {
		return nil
	}
	return rotator.Close()
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
