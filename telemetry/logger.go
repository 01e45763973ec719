package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
)

type LogConfig struct {
	Level  string
	Format string
}

// NewLogger returns the service logger. Exporting providers get the otelslog
// bridge so records travel with their trace context; otherwise records go
// to w as text or JSON.
func NewLogger(name string, cfg LogConfig, w io.Writer, providers *Providers) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("telemetry: log level: %w", err)
	}

	if providers != nil && providers.Exporting {
		handler := otelslog.NewHandler(name, otelslog.WithLoggerProvider(providers.LoggerProvider))
		return slog.New(&levelHandler{level: level, handler: handler}), nil
	}

	opts := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("telemetry: unknown log format %q", cfg.Format)
	}
}

// levelHandler drops records below level before they reach handler.
type levelHandler struct {
	level   slog.Leveler
	handler slog.Handler
}

func (h *levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level() && h.handler.Enabled(ctx, level)
}

func (h *levelHandler) Handle(ctx context.Context, record slog.Record) error {
	return h.handler.Handle(ctx, record)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{level: h.level, handler: h.handler.WithAttrs(attrs)}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{level: h.level, handler: h.handler.WithGroup(name)}
}
