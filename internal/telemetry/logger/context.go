package logger

import "context"

type contextKey int

const (
	loggerKey contextKey = iota
	sessionKey
	runIDKey
)

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// WithSession stores the session name in ctx.
func WithSession(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, sessionKey, name)
}

// WithRunID stores the run id in ctx.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// L returns the logger stored in ctx, or Default, tagged with the session
// name and run id found in ctx.
func L(ctx context.Context) Logger {
	l, ok := ctx.Value(loggerKey).(Logger)
	if !ok {
		l = Default()
	}
	if s, _ := ctx.Value(sessionKey).(string); s != "" {
		l = l.With("session", s)
	}
	if id, _ := ctx.Value(runIDKey).(string); id != "" {
		l = l.With("run_id", id)
	}
	return l
}
