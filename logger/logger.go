// Package logger wraps log/slog with a request-scoped logger carried in the
// context:
//
//	log := logger.FromContext(r.Context())
//	log.Info("order placed", "order_number", order.OrderNumber)
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// L is the process-wide base logger.
var L = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

type ctxKey struct{}

// Setup replaces L with a JSON logger in production and a text logger
// otherwise, and makes it the slog default.
func Setup(production bool) *slog.Logger {
	L = New(os.Stdout, production)
	slog.SetDefault(L)
	return L
}

// New builds a logger writing to w.
func New(w io.Writer, production bool) *slog.Logger {
	if production {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// WithContext stores log in ctx.
func WithContext(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the request logger stored in ctx, or L.
func FromContext(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// Discard is a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
