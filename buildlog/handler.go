package buildlog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// TimeFormat is the layout of the timestamp prefix of each line.
const TimeFormat = "15:04:05.000"

type buffer struct {
	mu    sync.Mutex
	lines []string
}

// Handler records log records as text lines and forwards them to an inner handler.
type Handler struct {
	buf   *buffer
	next  slog.Handler
	level slog.Leveler
	// attrs holds preformatted " key=value" pairs from WithAttrs.
	attrs  string
	prefix string
}

var _ slog.Handler = (*Handler)(nil)

// Option configures a Handler.
type Option func(*Handler)

// WithLevel sets the minimum level recorded. The default is slog.LevelInfo.
// Forwarding still honors the inner handler's own level.
func WithLevel(level slog.Leveler) Option {
	return func(h *Handler) {
		h.level = level
	}
}

// New creates a Handler that forwards to next. next may be nil.
func New(next slog.Handler, opts ...Option) *Handler {
	h := &Handler{
		buf:   &buffer{},
		next:  next,
		level: slog.LevelInfo,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) records(level slog.Level) bool {
	return level >= h.level.Level()
}

// Enabled reports whether either the recorder or the inner handler wants level.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.records(level) {
		return true
	}
	return h.next != nil && h.next.Enabled(ctx, level)
}

// Handle records r and forwards it.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if h.records(r.Level) {
		var sb strings.Builder
		fmt.Fprintf(&sb, "[%s] [%s] %s", r.Time.Format(TimeFormat), r.Level, r.Message)
		sb.WriteString(h.attrs)
		r.Attrs(func(a slog.Attr) bool {
			writeAttr(&sb, h.prefix, a)
			return true
		})

		h.buf.mu.Lock()
		h.buf.lines = append(h.buf.lines, sb.String())
		h.buf.mu.Unlock()
	}

	if h.next != nil && h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

// WithAttrs returns a handler sharing h's buffer that adds attrs to every line.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var sb strings.Builder
	sb.WriteString(h.attrs)
	for _, a := range attrs {
		writeAttr(&sb, h.prefix, a)
	}

	clone := *h
	clone.attrs = sb.String()
	if h.next != nil {
		clone.next = h.next.WithAttrs(attrs)
	}
	return &clone
}

// WithGroup returns a handler sharing h's buffer that qualifies later keys with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	if h.next != nil {
		clone.next = h.next.WithGroup(name)
	}
	return &clone
}

// Lines returns a copy of the recorded lines in the order they were logged.
func (h *Handler) Lines() []string {
	h.buf.mu.Lock()
	defer h.buf.mu.Unlock()
	return slices.Clone(h.buf.lines)
}

// Reset discards every recorded line. Handlers derived through WithAttrs
// or WithGroup share the buffer and are reset too.
func (h *Handler) Reset() {
	h.buf.mu.Lock()
	defer h.buf.mu.Unlock()
	h.buf.lines = nil
}

// Len returns the number of recorded lines.
func (h *Handler) Len() int {
	h.buf.mu.Lock()
	defer h.buf.mu.Unlock()
	return len(h.buf.lines)
}

func writeAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if len(group) == 0 {
			return
		}
		inner := prefix
		if a.Key != "" {
			inner = prefix + a.Key + "."
		}
		for _, ga := range group {
			writeAttr(sb, inner, ga)
		}
		return
	}

	value := a.Value.String()
	if strings.ContainsAny(value, " \t\n\"=") {
		value = fmt.Sprintf("%q", value)
	}
	sb.WriteString(" ")
	sb.WriteString(prefix)
	sb.WriteString(a.Key)
	sb.WriteString("=")
	sb.WriteString(value)
}
