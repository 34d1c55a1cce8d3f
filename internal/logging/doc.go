// Package logging configures slog for docscan with a level per module.
//
// Call [Initialize] once at startup, then ask for a logger by module name:
//
//	logging.Initialize(logging.Config{Level: "info", Format: "text"})
//	logger := logging.GetLogger("camera")
//	logger.Info("Stream acquired", "device", dev.ID)
//
// Every record goes to three places: stdout (text or JSON) when it is a
// terminal, pipe or file; the systemd journal when its socket exists; and an
// in-memory ring buffer read by GET /api/logs. Journal entries are tagged
// SYSLOG_IDENTIFIER=docscan and attributes become upper-case fields:
//
//	journalctl -t docscan MODULE=camera
//	journalctl -t docscan -p warning --since "10m"
//
// Module names in use are camera, platform, scanner, save, intake, preview,
// api, http, cmd and main. A module without an override logs at the global
// level.
// [UpdateLevels] changes levels at runtime; the config watcher calls it when
// the [logging] table of the TOML file changes:
//
//	[logging]
//	level = "info"
//	camera = "debug"
//	intake = "warn"
package logging
