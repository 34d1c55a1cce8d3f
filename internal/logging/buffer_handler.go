package logging

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// BufferHandler copies records into the package ring buffer so the API can
// serve recent logs. Records are dropped until Initialize has created it.
type BufferHandler struct {
	level  slog.Leveler
	attrs  []groupedAttr
	groups []string
}

// groupedAttr remembers the groups open when an attribute was added.
type groupedAttr struct {
	groups []string
	attr   slog.Attr
}

// NewBufferHandler creates a handler that accepts records at or above level.
func NewBufferHandler(level slog.Leveler) *BufferHandler {
	return &BufferHandler{level: level}
}

func (h *BufferHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *BufferHandler) Handle(_ context.Context, r slog.Record) error {
	buffer := GetBuffer()
	if buffer == nil {
		return nil
	}

	entry := LogEntry{
		Timestamp: r.Time,
		Level:     shortLevel(r.Level),
		Module:    "app",
		Message:   r.Message,
	}
	attrs := make(map[string]any)
	collect := func(groups []string, a slog.Attr) {
		// The module attribute set by GetLogger becomes its own column.
		if a.Key == "module" && len(groups) == 0 {
			entry.Module = a.Value.String()
			return
		}
		flattenAttr(attrs, groups, a)
	}
	for _, ga := range h.attrs {
		collect(ga.groups, ga.attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		collect(h.groups, a)
		return true
	})

	if len(attrs) > 0 {
		entry.Attributes = attrs
	}
	buffer.Write(entry)
	return nil
}

func (h *BufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	added := slices.Clip(h.attrs)
	for _, a := range attrs {
		added = append(added, groupedAttr{groups: h.groups, attr: a})
	}
	return &BufferHandler{level: h.level, attrs: added, groups: h.groups}
}

func (h *BufferHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &BufferHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: append(slices.Clip(h.groups), name),
	}
}

// flattenAttr stores a under a dotted key, expanding groups. Errors,
// times and durations are stored as strings so entries encode as JSON.
func flattenAttr(dst map[string]any, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		inner := groups
		if a.Key != "" {
			inner = append(slices.Clip(groups), a.Key)
		}
		for _, ga := range a.Value.Group() {
			flattenAttr(dst, inner, ga)
		}
		return
	}

	key := strings.Join(append(slices.Clip(groups), a.Key), ".")
	switch a.Value.Kind() {
	case slog.KindTime:
		dst[key] = a.Value.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		dst[key] = a.Value.Duration().String()
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			dst[key] = err.Error()
		} else {
			dst[key] = a.Value.Any()
		}
	default:
		dst[key] = a.Value.Any()
	}
}

func shortLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
