package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var levelVar = new(slog.LevelVar)

var output = newOutputHandler(os.Stdout)

// L is the process logger. It is never reassigned; SetOutput swaps the
// handler underneath it.
var L = slog.New(output)

// SetLevel configures the global log level (debug, info, warn, error).
func SetLevel(lvl string) {
	switch strings.ToLower(lvl) {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
}

// SetOutput redirects the global logger, keeping the configured level. The
// stdio MCP server and the terminal UI own stdout, so they log elsewhere.
// It is safe to call while other goroutines log. Loggers derived with
// L.With or L.WithGroup keep the output that was current when they were
// derived.
func SetOutput(w io.Writer) {
	output.current.Store(jsonHandler(w))
}

func jsonHandler(w io.Writer) *slog.JSONHandler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: levelVar})
}

// outputHandler forwards to a JSON handler that can be replaced atomically.
type outputHandler struct {
	current atomic.Pointer[slog.JSONHandler]
}

func newOutputHandler(w io.Writer) *outputHandler {
	h := &outputHandler{}
	h.current.Store(jsonHandler(w))
	return h
}

func (h *outputHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.current.Load().Enabled(ctx, level)
}

func (h *outputHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.current.Load().Handle(ctx, r)
}

func (h *outputHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.current.Load().WithAttrs(attrs)
}

func (h *outputHandler) WithGroup(name string) slog.Handler {
	return h.current.Load().WithGroup(name)
}
