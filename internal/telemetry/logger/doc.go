// Package logger provides structured logging for perflog.
//
// It wraps the standard library log/slog:
//
//   - logger.go: handler construction, level control, global default
//   - context.go: session and run id propagation
//
// Core components accept a *slog.Logger; use Slog to obtain one from a
// configured Logger.
package logger
