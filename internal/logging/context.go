package logging

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	diagramIDKey ctxKey = iota
	toolKey
	sessionIDKey
)

// WithDiagramID returns a context with the diagram ID set.
func WithDiagramID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, diagramIDKey, id)
}

// WithTool returns a context with the tool name set.
func WithTool(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, toolKey, name)
}

// WithSessionID returns a context with the session ID set.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// DiagramID extracts the diagram ID from the context, or "" if absent.
func DiagramID(ctx context.Context) string {
	v, _ := ctx.Value(diagramIDKey).(string)
	return v
}

// Tool extracts the tool name from the context, or "" if absent.
func Tool(ctx context.Context) string {
	v, _ := ctx.Value(toolKey).(string)
	return v
}

// SessionID extracts the session ID from the context, or "" if absent.
func SessionID(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}

// WithIDs sets all three correlation values on the context at once.
func WithIDs(ctx context.Context, diagramID, tool, sessionID string) context.Context {
	ctx = WithDiagramID(ctx, diagramID)
	ctx = WithTool(ctx, tool)
	ctx = WithSessionID(ctx, sessionID)
	return ctx
}

// LogWith returns a logger enriched with correlation values from the
// context. Only non-empty values are added as attributes.
func LogWith(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := DiagramID(ctx); id != "" {
		logger = logger.With(slog.String("diagram_id", id))
	}
	if name := Tool(ctx); name != "" {
		logger = logger.With(slog.String("tool", name))
	}
	if id := SessionID(ctx); id != "" {
		logger = logger.With(slog.String("session_id", id))
	}
	return logger
}

// CorrelationHandler wraps an slog.Handler, automatically injecting
// correlation values from the context into every log record.
// Use with slog.New(NewCorrelationHandler(inner)) so callers can use
// logger.InfoContext(ctx, ...) and IDs appear automatically.
type CorrelationHandler struct {
	inner slog.Handler
}

// NewCorrelationHandler wraps the given handler with automatic correlation ID injection.
func NewCorrelationHandler(inner slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{inner: inner}
}

func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error {
	if v := DiagramID(ctx); v != "" {
		r.AddAttrs(slog.String("diagram_id", v))
	}
	if v := Tool(ctx); v != "" {
		r.AddAttrs(slog.String("tool", v))
	}
	if v := SessionID(ctx); v != "" {
		r.AddAttrs(slog.String("session_id", v))
	}
	return h.inner.Handle(ctx, r)
}

func (h *CorrelationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *CorrelationHandler) WithGroup(name string) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithGroup(name)}
}
