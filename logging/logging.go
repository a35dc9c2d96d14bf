// Package logging provides the scheduler's structured, leveled logger,
// wired to github.com/joeycumines/logiface with the stumpy JSON backend.
// Only rare, diagnostic-only events log — an automaxprocs tuning failure
// at package init, a tolerated worker affinity pin failure, a panic
// recovered from a task — never the hot steal/execute path itself.
package logging

import (
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the scheduler's log sink type.
type Logger = logiface.Logger[*stumpy.Event]

// New constructs a Logger writing newline-delimited JSON to the process's
// default writer (stdout), matching stumpy's default configuration.
func New() *Logger {
	return stumpy.L.New()
}

// Discard constructs a Logger whose events are formatted but never
// written, for tests and for callers that opt out of scheduler logging.
func Discard() *Logger {
	return stumpy.L.New(stumpy.L.WithWriter(logiface.WriterFunc[*stumpy.Event](
		func(*stumpy.Event) error { return nil },
	)))
}
