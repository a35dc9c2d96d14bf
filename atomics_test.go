package lazypool

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/momentics/lazypool/control"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestThiefRoundTripWakesExactlyOneSleeper(t *testing.T) {
	s := newSharedAtomics(nil)
	s.enterAsThief() // T=1

	woken := make(chan struct{}, 1)
	go func() {
		key := s.notifier.PrepareWait()
		s.thiefToSleeper()
		s.notifier.Wait(key)
		woken <- struct{}{}
	}()

	// Wait for the goroutine to register as a sleeper before the other
	// thief claims the slot and runs its round trip.
	var ran bool
	for deadline := time.Now().Add(time.Second); !ran && time.Now().Before(deadline); {
		thieves, _ := s.counts()
		if thieves == 0 {
			ran = true
		} else {
			runtime.Gosched()
		}
	}

	// A fresh thief registers (as every worker does before hunting) and
	// then finds work, triggering the wake.
	s.enterAsThief()
	s.thiefRoundTrip(func() {})

	select {
	case <-woken:
	case <-time.After(time.Second):
		t.Fatal("expected the sleeper to have been woken by thiefRoundTrip")
	}
}

func TestThiefRoundTripIncrementsNotifyOneMetricOnLastThiefHandoff(t *testing.T) {
	metrics := control.NewPoolMetrics(nil)
	s := newSharedAtomics(metrics)
	s.enterAsThief() // T=1

	// A round trip with a single thief is exactly the last-thief handoff
	// this counter exists to track. Round trip leaves T=1 again.
	s.thiefRoundTrip(func() {})

	// A round trip with more than one thief present must not double-count.
	s.enterAsThief() // T=2
	s.thiefRoundTrip(func() {})

	metrics.Publish(0, 0, 0)
	snap := metrics.Registry().GetSnapshot()
	require.Equal(t, int64(1), snap[control.MetricNotifyOne])
}

func TestThiefToSleeperRevertsWhenActiveIsNonZero(t *testing.T) {
	s := newSharedAtomics(nil)
	s.enterAsThief() // T=1

	// Simulate one active worker (A=1) by adding activeUnit directly.
	s.dualCount.Add(activeUnit)

	safe := s.thiefToSleeper()
	require.False(t, safe, "last thief must not sleep while a worker is active")

	thieves, active := s.counts()
	require.Equal(t, uint32(1), thieves)
	require.Equal(t, uint32(1), active)
}

func TestThiefToSleeperSucceedsWhenOtherThievesRemain(t *testing.T) {
	s := newSharedAtomics(nil)
	s.enterAsThief()
	s.enterAsThief() // T=2

	safe := s.thiefToSleeper()
	require.True(t, safe)

	thieves, _ := s.counts()
	require.Equal(t, uint32(1), thieves)
}

func TestRequestStopIsIdempotentAndWakesSleepers(t *testing.T) {
	s := newSharedAtomics(nil)

	done := make(chan struct{})
	go func() {
		// Re-check stop after PrepareWait, as runWorker does, so a
		// requestStop that lands before this goroutine prepares is seen.
		key := s.notifier.PrepareWait()
		if !s.stop.Load() {
			s.notifier.Wait(key)
		}
		close(done)
	}()

	s.requestStop()
	s.requestStop() // must not panic or double-notify badly
	<-done
	require.True(t, s.stop.Load())
}

// TestPackedCounterInvariantsHoldUnderRandomTransitions exercises the wake
// invariant (active > 0 implies at least one thief or zero sleepers) and
// the conservation invariant (thieves + active + sleepers == N) against a
// sequence of randomly chosen legal transitions, using a model-based
// property test.
func TestPackedCounterInvariantsHoldUnderRandomTransitions(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		const n = 6
		s := newSharedAtomics(nil)

		// Model state, mirroring the packed counter by hand.
		thieves, active, sleepers := 0, 0, n
		for i := 0; i < n; i++ {
			s.enterAsThief()
			thieves++
			sleepers--
		}

		steps := rapid.IntRange(1, 200).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			choice := rapid.IntRange(0, 2).Draw(rt, "choice")
			switch choice {
			case 0: // thief -> active -> thief (round trip), only if a thief exists
				if thieves == 0 {
					continue
				}
				// The last thief's round trip notifies one sleeper, and that
				// sleeper's wakeup is what restores the wake invariant; the
				// model performs the wakeup inside fn before checking it.
				handoff := thieves == 1 && sleepers > 0
				var midThieves, midActive, wokeThieves, wokeActive uint32
				s.thiefRoundTrip(func() {
					midThieves, midActive = s.counts()
					if handoff {
						s.sleeperToThief()
					}
					wokeThieves, wokeActive = s.counts()
				})
				require.Equal(rt, uint32(thieves-1), midThieves)
				require.Equal(rt, uint32(active+1), midActive)
				if handoff {
					sleepers--
					thieves++
				}
				checkWakeInvariant(rt, int(wokeThieves), int(wokeActive), sleepers)
			case 1: // thief -> sleeper, only if a thief exists
				if thieves == 0 {
					continue
				}
				safe := s.thiefToSleeper()
				if thieves == 1 && active > 0 {
					require.False(rt, safe)
				} else {
					require.True(rt, safe)
					thieves--
					sleepers++
				}
			case 2: // sleeper -> thief, only if a sleeper exists
				if sleepers == 0 {
					continue
				}
				s.sleeperToThief()
				sleepers--
				thieves++
			}

			gotThieves, gotActive := s.counts()
			require.Equal(rt, uint32(thieves), gotThieves)
			require.Equal(rt, uint32(active), gotActive)
			require.Equal(rt, n, thieves+active+sleepers)
			checkWakeInvariant(rt, thieves, active, sleepers)
		}
	})
}

func checkWakeInvariant(rt *rapid.T, thieves, active, sleepers int) {
	if active > 0 {
		require.True(rt, thieves >= 1 || sleepers == 0,
			"wake invariant violated: active=%d thieves=%d sleepers=%d", active, thieves, sleepers)
	}
}

func TestCountsConcurrentEnterAndRoundTripDoNotCorruptPackedWord(t *testing.T) {
	s := newSharedAtomics(nil)
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.enterAsThief()
			s.thiefRoundTrip(func() {})
		}()
	}
	wg.Wait()

	thieves, active := s.counts()
	require.Equal(t, uint32(n), thieves)
	require.Equal(t, uint32(0), active)
}
