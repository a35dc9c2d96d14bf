package lazypool

import (
	"sync/atomic"

	"github.com/momentics/lazypool/control"
	"github.com/momentics/lazypool/internal/eventcount"
)

// cacheLinePad is a false-sharing guard applied to the pool's single
// hottest shared word.
const cacheLinePad = 64

const (
	thieveUnit    = uint64(1)
	activeUnit    = thieveUnit << 32
	thieveMask    = activeUnit - 1
	activeMask    = ^thieveMask
	negThieveUnit = ^thieveUnit + 1 // two's complement -1, i.e. dualCount -= thieveUnit
)

// sharedAtomics is the single instance per pool referenced by every
// worker: the packed (thieves, active) counter, the stop flag, and the
// event count used for sleeping. Exactly one of these exists per Pool and
// is shared via pointer by every WorkerContext.
type sharedAtomics struct {
	// dualCount packs (thieves T in the low 32 bits, active A in the high
	// 32 bits). Sleepers S are never stored; S = N - T - A. Packing both
	// counts into one word is load-bearing: the sleep handshake must
	// observe both "was I the last thief" and "are there active workers"
	// at a single linearization point.
	dualCount atomic.Uint64
	_         [cacheLinePad - 8]byte

	stop atomic.Bool
	_    [cacheLinePad - 4]byte

	notifier *eventcount.EventCount
	metrics  *control.PoolMetrics
}

func newSharedAtomics(metrics *control.PoolMetrics) *sharedAtomics {
	return &sharedAtomics{notifier: eventcount.New(), metrics: metrics}
}

// thiefRoundTrip performs the Thief->Active transition, runs fn (the
// actual task resumption), then the Active->Thief transition. If this
// worker was the last thief, it wakes exactly one sleeper before running
// fn so that sleeper re-registers as a thief and restores the wake
// invariant (active > 0 implies at least one thief or no sleepers), and
// can start hunting in parallel with fn's execution. Until the woken
// sleeper re-registers, the counter reads zero thieves with a nonzero
// active count.
//
// atomic.Uint64.Add returns the post-add value, unlike C++'s
// fetch_add/fetch_sub which return the pre-add value; every transition
// below reconstructs the pre-transition word by undoing its own delta
// before masking out the field it needs to inspect.
func (s *sharedAtomics) thiefRoundTrip(fn func()) {
	delta := activeUnit - thieveUnit
	newVal := s.dualCount.Add(delta)
	oldVal := newVal - delta
	prevThieves := oldVal & thieveMask

	if prevThieves == 1 {
		s.notifier.NotifyOne()
		if s.metrics != nil {
			s.metrics.IncNotifyOne()
		}
	}

	fn()

	s.dualCount.Add(-delta)
}

// thiefToSleeper attempts the Thief->Sleeper transition. It returns true
// if the caller is safe to call notifier.Wait(key); false if the
// transition would have broken the wake invariant and was reverted (the
// caller must restart its hunt as a thief).
func (s *sharedAtomics) thiefToSleeper() (safeToSleep bool) {
	newVal := s.dualCount.Add(negThieveUnit)
	oldVal := newVal + thieveUnit

	prevThieves := oldVal & thieveMask
	prevActive := oldVal & activeMask

	if prevThieves == 1 && prevActive != 0 {
		// Broke the wake invariant: active > 0 and thieves is about to be
		// 0 with sleepers >= 1. Only we can restore it, because any
		// existing sleeper may already be parked and will not notice
		// this transition.
		s.dualCount.Add(thieveUnit)
		return false
	}
	return true
}

// sleeperToThief performs the Sleeper->Thief wakeup transition. Always
// safe for the wake invariant, since thieves only increases here.
func (s *sharedAtomics) sleeperToThief() {
	s.dualCount.Add(thieveUnit)
}

// enterAsThief registers a newly spawned (or just-woken) worker as a
// thief. Used both at worker start and after a wakeup.
func (s *sharedAtomics) enterAsThief() {
	s.dualCount.Add(thieveUnit)
}

// counts decodes the current (thieves, active) pair for diagnostics and
// tests; it is not used on the protocol's hot path.
func (s *sharedAtomics) counts() (thieves, active uint32) {
	v := s.dualCount.Load()
	return uint32(v & thieveMask), uint32((v & activeMask) >> 32)
}

// requestStop sets the stop flag and wakes every sleeper so they observe
// it and exit. Idempotent.
func (s *sharedAtomics) requestStop() {
	s.stop.Store(true)
	s.notifier.NotifyAll()
}
