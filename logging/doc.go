// Package logging provides structured logging with per-module loggers.
//
// Logs go to stderr as text or JSON so stdout stays free for dry-run
// output. When journal output is requested and journald is reachable,
// records are also sent to the systemd journal.
//
// Initialize once at startup:
//
//	logging.Initialize(logging.Config{Level: "debug", Format: "text"})
//
// Then get a logger per package:
//
//	logger := logging.GetLogger("registry")
//	logger.Debug("Merged clip", "path", path, "start", r.Start)
//
// Filter journal entries by module:
//
//	journalctl -t consolidate MODULE=orchestrator
package logging
