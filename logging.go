package lazypool

import (
	"sync/atomic"

	"github.com/momentics/lazypool/logging"
)

var globalLogger = newGlobalLogger()

func newGlobalLogger() *atomic.Pointer[logging.Logger] {
	p := &atomic.Pointer[logging.Logger]{}
	p.Store(logging.Discard())
	return p
}

// SetLogger installs the logger used for the scheduler's rare,
// diagnostic-only events (a tolerated affinity pin failure, panics
// recovered from a task). Passing nil restores the discarding default. Safe to call
// concurrently with a running pool.
func SetLogger(l *logging.Logger) {
	if l == nil {
		l = logging.Discard()
	}
	globalLogger.Store(l)
}

func poolLogger() *logging.Logger { return globalLogger.Load() }
