package snsctx

import (
	"context"
	"log/slog"
)

type ctxIndex int

const (
	ctxIndexVerbose ctxIndex = iota
	ctxIndexLogger
)

func IsVerbose(ctx context.Context) bool {
	val := ctx.Value(ctxIndexVerbose)
	if val == nil {
		return false
	}
	return val.(bool)
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, ctxIndexVerbose, value)
}

// Logger returns the logger attached to ctx or slog.Default.
func Logger(ctx context.Context) *slog.Logger {
	val, ok := ctx.Value(ctxIndexLogger).(*slog.Logger)
	if !ok || val == nil {
		return slog.Default()
	}
	return val
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxIndexLogger, logger)
}

// Trace logs a bus frame at debug level when verbose mode is on.
func Trace(ctx context.Context, msg string, args ...any) {
	if !IsVerbose(ctx) {
		return
	}
	Logger(ctx).DebugContext(ctx, msg, args...)
}
