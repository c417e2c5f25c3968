// handler.go bridges the LogFormatter layer into log/slog, so the
// same Logger API drives JSON, plain-text, and colored output.
package log

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// formatHandler is a slog.Handler that renders each record through a
// LogFormatter and writes one line per entry.
type formatHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	f     LogFormatter
	level LogLevel
	attrs []slog.Attr
}

func newFormatHandler(w io.Writer, f LogFormatter, level LogLevel) *formatHandler {
	return &formatHandler{
		mu:    new(sync.Mutex),
		w:     w,
		f:     f,
		level: level,
	}
}

// Enabled reports whether records at the given slog level pass the
// handler's threshold.
func (h *formatHandler) Enabled(_ context.Context, level slog.Level) bool {
	return levelFromSlog(level) >= h.level
}

// Handle formats the record and writes it as a single line. The mutex
// keeps concurrent loggers from interleaving partial lines.
func (h *formatHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make(map[string]interface{}, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		fields[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.Any()
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	line := h.f.Format(LogEntry{
		Timestamp: ts,
		Level:     levelFromSlog(r.Level),
		Message:   r.Message,
		Fields:    fields,
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line+"\n")
	return err
}

// WithAttrs returns a handler that includes the given attributes in
// every entry.
func (h *formatHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &formatHandler{mu: h.mu, w: h.w, f: h.f, level: h.level, attrs: merged}
}

// WithGroup is accepted but flattens the group: the Logger API only
// attaches plain key-value pairs, never groups.
func (h *formatHandler) WithGroup(string) slog.Handler { return h }
