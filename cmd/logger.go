package cmd

import (
	"log/slog"

	"github.com/smazurov/docscan/internal/logging"
)

// commandLogger returns the module logger for a subcommand.
func commandLogger(name string) *slog.Logger {
	return logging.GetLogger("cmd").With("command", name)
}
