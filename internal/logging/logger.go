package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// DefaultBufferSize is how many records GET /api/logs can return at most.
const DefaultBufferSize = 1000

var (
	mutex           sync.RWMutex
	moduleLoggers   = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	globalConfig    Config
	globalLevelVar  = &slog.LevelVar{}
	isInitialized   bool
	logBuffer       *RingBuffer
)

// Config is the [logging] section of the config file.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
	// BufferSize caps the in-memory history; zero means DefaultBufferSize.
	BufferSize int `toml:"buffer_size"`
}

// Initialize applies config and creates the log ring buffer. Loggers handed
// out earlier keep working: their levels are updated in place and, when the
// format changes to JSON, their handler chain is rebuilt.
func Initialize(config Config) {
	mutex.Lock()
	defer mutex.Unlock()

	globalConfig = config
	isInitialized = true

	size := config.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}
	logBuffer = NewRingBuffer(size)

	globalLevelVar.Set(levelOrDefault(config.Level))
	for module, levelVar := range moduleLevelVars {
		levelVar.Set(moduleLevel(config, module))
		if config.Format == "json" {
			moduleLoggers[module] = newModuleLogger(config.Format, module, levelVar)
		}
	}

	slog.SetDefault(slog.New(createHandler(config.Format, globalLevelVar)))
}

// UpdateLevels changes the global and per-module levels. The format chosen
// at Initialize stays.
func UpdateLevels(config Config) {
	mutex.Lock()
	defer mutex.Unlock()

	globalConfig.Level = config.Level
	globalConfig.Modules = config.Modules

	globalLevelVar.Set(levelOrDefault(config.Level))
	for module, levelVar := range moduleLevelVars {
		levelVar.Set(moduleLevel(globalConfig, module))
	}
}

// GetBuffer returns the ring buffer, or nil before Initialize.
func GetBuffer() *RingBuffer {
	mutex.RLock()
	defer mutex.RUnlock()
	return logBuffer
}

// GetLogger returns the cached logger for module. Every record it writes
// carries module=<name>.
func GetLogger(module string) *slog.Logger {
	mutex.RLock()
	logger, ok := moduleLoggers[module]
	mutex.RUnlock()
	if ok {
		return logger
	}

	mutex.Lock()
	defer mutex.Unlock()
	if logger, ok := moduleLoggers[module]; ok {
		return logger
	}

	levelVar := &slog.LevelVar{}
	format := "text"
	if isInitialized {
		levelVar.Set(moduleLevel(globalConfig, module))
		format = globalConfig.Format
	}

	logger = newModuleLogger(format, module, levelVar)
	moduleLoggers[module] = logger
	moduleLevelVars[module] = levelVar
	return logger
}

func newModuleLogger(format, module string, level slog.Leveler) *slog.Logger {
	return slog.New(createHandler(format, level)).With("module", module)
}

// moduleLevel is the module override if valid, else the global level, else info.
func moduleLevel(config Config, module string) slog.Level {
	if level, ok := parseLevel(config.Modules[module]); ok {
		return level
	}
	return levelOrDefault(config.Level)
}

func levelOrDefault(s string) slog.Level {
	if level, ok := parseLevel(s); ok {
		return level
	}
	return slog.LevelInfo
}

// createHandler fans records out to stdout, the journal when present, and
// the ring buffer.
func createHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stdout slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if format == "json" {
		stdout = slog.NewJSONHandler(os.Stdout, opts)
	}

	handlers := []slog.Handler{NewBufferHandler(level)}
	if IsJournalAvailable() {
		handlers = append(handlers, NewJournalHandler(level))
	}
	// Under systemd stdout is usually /dev/null or the journal itself.
	if isStdoutAvailable() || len(handlers) == 1 {
		handlers = append(handlers, stdout)
	}
	return NewMultiHandler(handlers...)
}

// isStdoutAvailable reports whether stdout is a terminal, pipe, socket or
// regular file rather than a device such as /dev/null.
func isStdoutAvailable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return mode&(os.ModeCharDevice|os.ModeNamedPipe|os.ModeSocket) != 0 || mode.IsRegular()
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}
