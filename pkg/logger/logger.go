// Package logger provides a structured, levelled logger built on log/slog.
//
// WithCtx returns the per-request logger injected by middleware.Logger, so
// every line written while serving a request carries its request_id:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("order confirmed", "reference", order.Reference)
//	// → time=... level=INFO msg="order confirmed" request_id=a1b2c3d4 reference=ORD-...
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shashiranjanraj/storefront/config"
)

var L *slog.Logger

func init() {
	L = New(os.Stdout, config.AppEnv(), config.Get("LOG_LEVEL", ""), config.Get("LOG_FORMAT", ""))
	slog.SetDefault(L)
}

// New builds a logger. Production defaults to JSON at info, tests to text at
// warn, everything else to text at debug. level ("debug", "info", "warn",
// "error") and format ("json", "text") override the defaults when set.
func New(w io.Writer, env, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	jsonOut := false

	switch env {
	case "production", "prod":
		opts.Level, jsonOut = slog.LevelInfo, true
	case "testing", "test":
		opts.Level = slog.LevelWarn
	}

	if level != "" {
		var lv slog.Level
		if err := lv.UnmarshalText([]byte(level)); err == nil {
			opts.Level = lv
		}
	}
	switch strings.ToLower(format) {
	case "json":
		jsonOut = true
	case "text":
		jsonOut = false
	}

	if jsonOut {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

type ctxKey struct{}

// WithCtx returns the logger stored in ctx by InjectLogger, or the base
// logger when none is present.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a request-scoped logger in ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }

func Info(msg string, args ...any) { L.Info(msg, args...) }

func Warn(msg string, args ...any) { L.Warn(msg, args...) }

func Error(msg string, args ...any) { L.Error(msg, args...) }
