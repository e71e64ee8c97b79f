// Package cli implements the flowmodel command-line interface.
//
// The commands load diagram documents (JSON or YAML files, or documents in
// the configured store addressed as store:<name>), run them through an
// editor and write the result back. Commands are cobra commands; logging
// goes through charmbracelet/log.
//
// # Commands
//
//   - validate: Import a document and report skipped elements
//   - export: Convert a document between JSON, YAML, DOT, SVG, PDF and PNG
//   - apply: Run a TOML edit script against a document
//   - inspect: Print elements, connections and history statistics
//   - edit: Edit a diagram interactively in the terminal
//   - serve: Serve a diagram over a read-only HTTP API
//   - store, cache: Manage stored documents and rendered artifacts
//
// # Logging
//
// --verbose (-v) switches to debug level and also routes command, import
// and cache events to the log. Each command finds the logger in its
// context.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger logs to w with short wall-clock timestamps ("14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// timed starts a clock and returns a function that logs msg at info level
// together with the elapsed time and any key/value pairs.
func timed(l *log.Logger) func(msg string, keyvals ...any) {
	start := time.Now()
	return func(msg string, keyvals ...any) {
		took := time.Since(start).Round(time.Millisecond)
		l.Info(msg, append(keyvals, "took", took)...)
	}
}
