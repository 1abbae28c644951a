// Package cli implements the meibo command-line interface.
//
// The commands read .lay layouts (or their JSON mirrors), fill them with
// student records and render PNG pages. The CLI is built on cobra and logs
// through charmbracelet/log.
//
// # Commands
//
//   - inspect: Summarize a layout and list its objects
//   - convert: Export a layout as a JSON mirror
//   - fill: Fill a layout with records and write the filled mirrors
//   - render: Fill, tile and render to PNG
//   - tile: Show or render the N-up arrangement of a card layout
//   - templates: List and manage the template directory
//   - cache: Manage the parse and render cache
//   - serve: Run the HTTP service
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// travels through context.Context so helpers can reach it.
//
// # Configuration
//
// Defaults for every command come from $XDG_CONFIG_HOME/meibo/config.toml
// or the file named by --config; flags override them.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates the CLI logger: timestamps as "HH:MM:SS.ms"
// (e.g. "14:32:01.45"), messages below level dropped.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// levelFor maps the --verbose flag to a log level.
func levelFor(verbose bool) log.Level {
	if verbose {
		return log.DebugLevel
	}
	return log.InfoLevel
}

// progress times one command stage. It is meant for a single goroutine.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with keyvals and the elapsed time rounded to milliseconds:
//
//	14:32:01.45 INFO Rendered 12 pages elapsed=1.234s
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches l to ctx.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached to ctx, or log.Default()
// so that helpers always have one.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
