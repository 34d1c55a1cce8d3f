package logging

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/journal"
)

// syslogIdentifier tags every journal entry, so `journalctl -t docscan` works.
const syslogIdentifier = "docscan"

// JournalHandler writes records to the systemd journal as structured fields.
// Attribute keys become upper-case field names, groups joined with "_".
type JournalHandler struct {
	level  slog.Leveler
	attrs  []groupedAttr
	groups []string
}

// NewJournalHandler creates a journal handler that accepts records at or above level.
func NewJournalHandler(level slog.Leveler) *JournalHandler {
	return &JournalHandler{level: level}
}

func (h *JournalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *JournalHandler) Handle(_ context.Context, r slog.Record) error {
	fields := map[string]string{"SYSLOG_IDENTIFIER": syslogIdentifier}
	for _, ga := range h.attrs {
		addJournalField(fields, ga.groups, ga.attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		addJournalField(fields, h.groups, attr)
		return true
	})
	return journal.Send(r.Message, journalPriority(r.Level), fields)
}

func (h *JournalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	added := slices.Clip(h.attrs)
	for _, a := range attrs {
		added = append(added, groupedAttr{groups: h.groups, attr: a})
	}
	return &JournalHandler{level: h.level, attrs: added, groups: h.groups}
}

func (h *JournalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &JournalHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: append(slices.Clip(h.groups), name),
	}
}

func journalPriority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

// journalKey turns an attribute path into a valid journal field name:
// upper-case letters, digits and underscores, not starting with "_".
func journalKey(groups []string, key string) string {
	name := strings.ToUpper(strings.Join(append(slices.Clip(groups), key), "_"))
	name = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, name)
	return strings.TrimLeft(name, "_")
}

func addJournalField(fields map[string]string, groups []string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}

	if attr.Value.Kind() == slog.KindGroup {
		inner := groups
		if attr.Key != "" {
			inner = append(slices.Clip(groups), attr.Key)
		}
		for _, a := range attr.Value.Group() {
			addJournalField(fields, inner, a)
		}
		return
	}

	key := journalKey(groups, attr.Key)
	if key == "" {
		return
	}

	v := attr.Value
	switch v.Kind() {
	case slog.KindInt64:
		fields[key] = strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		fields[key] = strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		fields[key] = strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindBool:
		fields[key] = strconv.FormatBool(v.Bool())
	case slog.KindTime:
		fields[key] = v.Time().Format(time.RFC3339Nano)
	default:
		fields[key] = v.String()
	}
}

// IsJournalAvailable reports whether the journal socket is reachable.
func IsJournalAvailable() bool {
	return journal.Enabled()
}
