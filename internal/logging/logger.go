// Package logging provides structured logging configuration using log/slog.
//
// Request IDs set by chi's RequestID middleware and the visitor id set by the
// visitor middleware are propagated into every entry produced through
// FromContext, so all lines written while serving one request can be
// correlated.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Setup configures the global slog logger based on level and format.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

// New builds a logger writing to w. Used by Setup and by the CLI, which logs
// to stderr so that stdout stays free for command output.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
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

// FromContext returns a logger enriched with request context.
//
// Usage:
//
//	func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
//	    logger := logging.FromContext(r.Context())
//	    logger.Info("rendering page", "page", view.Page)
//	}
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if visitor := VisitorFromContext(ctx); visitor != "" {
		logger = logger.With("visitor", visitor)
	}

	return logger
}

type visitorKey struct{}

// ContextWithVisitor stores the visitor id for FromContext.
func ContextWithVisitor(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, visitorKey{}, id)
}

// VisitorFromContext returns the visitor id stored by ContextWithVisitor.
func VisitorFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(visitorKey{}).(string); ok {
		return id
	}
	return ""
}

// WithFields returns a logger with additional structured fields.
//
//	sessLogger := logging.WithFields(ctx, "visitor", visitorID)
//	sessLogger.Info("selection restored", "entries", n)
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
