package cmd

import (
	"context"
	"log/slog"
)

// fanoutHandler dispatches every record to two handlers: the process-wide
// stderr handler and a run-scoped file handler over messages.log. Errors
// from either handler are ignored, matching slog's own tolerance for a
// single misbehaving sink.
type fanoutHandler struct {
	stderr slog.Handler
	file   slog.Handler
}

func newFanoutHandler(stderr, file slog.Handler) *fanoutHandler {
	return &fanoutHandler{stderr: stderr, file: file}
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.stderr.Enabled(ctx, level) || h.file.Enabled(ctx, level)
}

func (h *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.stderr.Enabled(ctx, r.Level) {
		_ = h.stderr.Handle(ctx, r.Clone())
	}
	if h.file.Enabled(ctx, r.Level) {
		_ = h.file.Handle(ctx, r.Clone())
	}
	return nil
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &fanoutHandler{stderr: h.stderr.WithAttrs(attrs), file: h.file.WithAttrs(attrs)}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	return &fanoutHandler{stderr: h.stderr.WithGroup(name), file: h.file.WithGroup(name)}
}
