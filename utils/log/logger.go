package log

import (
	"context"
	"os"

	"go.uber.org/zap"
)

var logger *zap.Logger

type ctxKey string

const (
	sessionKey    ctxKey = "session_id"
	remoteAddrKey ctxKey = "remote_addr"
)

func init() {
	if os.Getenv("DEBUG") == "true" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
}

// WithSession returns a context carrying the chat session id used by WithCtx.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey, sessionID)
}

// WithRemoteAddr returns a context carrying the peer address used by WithCtx.
func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, remoteAddrKey, addr)
}

// SessionID returns the session id stored by WithSession, or "".
func SessionID(ctx context.Context) string {
	v, _ := ctx.Value(sessionKey).(string)
	return v
}

func WithCtx(ctx context.Context) *zap.Logger {
	fields := []zap.Field{}

	if v := ctx.Value(sessionKey); v != nil {
		fields = append(fields, zap.Any("session_id", v))
	}
	if v := ctx.Value(remoteAddrKey); v != nil {
		fields = append(fields, zap.Any("remote_addr", v))
	}

	return logger.With(fields...)
}

func With(fields ...zap.Field) *zap.Logger {
	return logger.With(fields...)
}

// Replace swaps the package logger and returns a func restoring the previous one.
func Replace(l *zap.Logger) func() {
	prev := logger
	logger = l
	return func() { logger = prev }
}

// Sync flushes buffered log entries.
func Sync() {
	_ = logger.Sync()
}
