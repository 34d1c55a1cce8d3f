package ffmpeg

import (
	"log/slog"
	"strings"
)

// logLevels maps the level tags ffmpeg prints with -loglevel level+<x>.
var logLevels = map[string]slog.Level{
	"quiet":   slog.LevelError,
	"panic":   slog.LevelError,
	"fatal":   slog.LevelError,
	"error":   slog.LevelError,
	"warning": slog.LevelWarn,
	"info":    slog.LevelInfo,
	"verbose": slog.LevelDebug,
	"debug":   slog.LevelDebug,
	"trace":   slog.LevelDebug,
}

// ParseLogLevel splits an ffmpeg stderr line into its level tag and message.
// Both "[level] msg" and "[component @ 0x..] [level] msg" are recognised; the
// component prefix stays in msg. Untagged lines are "info".
func ParseLogLevel(line string) (level, msg string) {
	if tag, rest, ok := cutTag(line); ok {
		if _, known := logLevels[tag]; known {
			return tag, rest
		}
		if inner, tail, ok := cutTag(rest); ok {
			if _, known := logLevels[inner]; known {
				return inner, "[" + tag + "] " + tail
			}
		}
	}
	return "info", line
}

// SlogLevel maps an ffmpeg level tag to a slog level.
func SlogLevel(level string) slog.Level {
	if l, ok := logLevels[level]; ok {
		return l
	}
	return slog.LevelInfo
}

// cutTag splits "[tag] rest".
func cutTag(s string) (tag, rest string, ok bool) {
	if !strings.HasPrefix(s, "[") {
		return "", s, false
	}
	return strings.Cut(s[1:], "] ")
}
