// Package eventcount implements a lock-free condition-variable-like
// primitive used by the scheduler's worker loop to sleep without losing
// wakeups.
//
// The design follows the classic "event count" idiom (as used by folly's
// EventCount and libfork's event_count): a waiter calls PrepareWait to
// atomically capture the current epoch, re-checks its wake condition, and
// only then calls Wait. Any NotifyOne/NotifyAll that happens after
// PrepareWait is guaranteed to bump the epoch and release the waiter,
// closing the classic lost-wakeup race window.
package eventcount

import (
	"sync"
	"sync/atomic"
)

// cacheLinePad matches the padding used by the scheduler's other hot-path
// atomics to avoid false sharing between the epoch and unrelated fields.
const cacheLinePad = 64

// Key is the token returned by PrepareWait and consumed by Wait or
// CancelWait.
type Key struct {
	epoch uint64
}

// EventCount is a lock-free prepare-wait/commit/cancel primitive with
// notify-one and notify-all wakeups. The zero value is not usable; use New.
type EventCount struct {
	// epoch advances by 2 on every notification; the low bit is set by
	// PrepareWait and cleared by the next notification. Notifications do
	// not consult the bit: they always take the lock to signal.
	epoch atomic.Uint64
	_     [cacheLinePad - 8]byte

	mu   sync.Mutex
	cond sync.Cond
}

const waitingBit = uint64(1)

// New constructs a ready-to-use EventCount.
func New() *EventCount {
	ec := &EventCount{}
	ec.cond.L = &ec.mu
	return ec
}

// PrepareWait registers intent to sleep and returns a key capturing the
// current epoch. Lock-free; safe to call on any goroutine.
func (ec *EventCount) PrepareWait() Key {
	e := ec.epoch.Or(waitingBit)
	return Key{epoch: e | waitingBit}
}

// CancelWait discards a key obtained from PrepareWait without sleeping.
// No-op beyond bookkeeping; the waiting bit is left set and cleared lazily
// by the next notification, matching folly's EventCount trade-off of a
// possible spurious wake over the cost of a CAS retry loop here.
func (ec *EventCount) CancelWait() {}

// Wait blocks until a notification ordered-after the PrepareWait that
// produced key occurs. May return spuriously; callers must re-evaluate
// their wake condition and loop.
func (ec *EventCount) Wait(key Key) {
	ec.mu.Lock()
	for ec.epoch.Load() == key.epoch {
		ec.cond.Wait()
	}
	ec.mu.Unlock()
}

// NotifyOne wakes at most one waiter currently parked in Wait. Because it
// advances the epoch, any waiter that has called PrepareWait but not yet
// parked also returns from Wait without blocking.
func (ec *EventCount) NotifyOne() {
	ec.bump()
	ec.mu.Lock()
	ec.cond.Signal()
	ec.mu.Unlock()
}

// NotifyAll wakes every waiter currently parked (or about to park) on the
// event count.
func (ec *EventCount) NotifyAll() {
	ec.bump()
	ec.mu.Lock()
	ec.cond.Broadcast()
	ec.mu.Unlock()
}

// bump advances the epoch, clearing the waiting bit so that a subsequent
// PrepareWait observes a fresh base epoch.
func (ec *EventCount) bump() {
	for {
		old := ec.epoch.Load()
		next := (old &^ waitingBit) + 2
		if ec.epoch.CompareAndSwap(old, next) {
			return
		}
	}
}
