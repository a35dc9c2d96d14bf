package lazypool

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/lazypool/control"
	"github.com/stretchr/testify/require"
)

// sumLeaf adds its value to acc and, if it is the last of n leaves to
// finish, closes done. Used by TestSingleForkJoin.
type sumLeaf struct {
	value int
	acc   *atomic.Int64
	left  *atomic.Int64
	done  chan struct{}
}

func (l sumLeaf) Resume() {
	l.acc.Add(int64(l.value))
	if l.left.Add(-1) == 0 {
		close(l.done)
	}
}

// TestSingleForkJoin runs a fork-join workload: one scheduled chain of
// 1000 leaves sums integers 1..1000 into an atomic accumulator.
func TestSingleForkJoin(t *testing.T) {
	pool, err := New(WithWorkerCount(4))
	require.NoError(t, err)
	defer pool.Shutdown()

	acc := &atomic.Int64{}
	left := &atomic.Int64{}
	left.Store(1000)
	done := make(chan struct{})

	leaves := make([]TaskHandle, 1000)
	for i := 1; i <= 1000; i++ {
		leaves[i-1] = sumLeaf{value: i, acc: acc, left: left, done: done}
	}

	pool.Schedule(NewChain(leaves...))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("fork-join did not complete")
	}
	require.Equal(t, int64(500500), acc.Load())
}

// TestEmptyPoolShutdown is scenario 2: construct with N=4, never submit,
// then shut down. Expected: the idle pool's packed counter settles at
// (0, 0) and all workers join promptly on shutdown.
func TestEmptyPoolShutdown(t *testing.T) {
	pool, err := New(WithWorkerCount(4))
	require.NoError(t, err)

	// The counter is read before Shutdown: every worker exits as a ghost
	// thief, leaving its +1 on the thief count.
	thieves, active := pool.atomics.counts()
	for deadline := time.Now().Add(5 * time.Second); (thieves != 0 || active != 0) && time.Now().Before(deadline); {
		time.Sleep(time.Millisecond)
		thieves, active = pool.atomics.counts()
	}
	require.Equal(t, uint32(0), thieves)
	require.Equal(t, uint32(0), active)

	done := make(chan struct{})
	go func() {
		require.NoError(t, pool.Shutdown())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown of an idle pool did not complete")
	}
}

// TestSaturationChurn is scenario 3: N=4 workers, 100 000 no-op tasks
// submitted sequentially. Expected: all complete, no deadlock.
func TestSaturationChurn(t *testing.T) {
	pool, err := New(WithWorkerCount(4))
	require.NoError(t, err)
	defer pool.Shutdown()

	const total = 100_000
	var completed atomic.Int64
	var wg sync.WaitGroup
	wg.Add(total)

	for i := 0; i < total; i++ {
		pool.Schedule(Single(FuncTask(func() {
			completed.Add(1)
			wg.Done()
		})))
	}

	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()

	select {
	case <-waitDone:
	case <-time.After(30 * time.Second):
		t.Fatalf("saturation churn deadlocked; completed=%d/%d", completed.Load(), total)
	}
	require.Equal(t, int64(total), completed.Load())
}

// TestSleepWakeOscillation is scenario 4: N=8, one task submitted every
// 50ms for 100 iterations. Expected: every task runs exactly once and
// workers oscillate between sleeping and hunting in between submissions.
func TestSleepWakeOscillation(t *testing.T) {
	pool, err := New(WithWorkerCount(8))
	require.NoError(t, err)
	defer pool.Shutdown()

	const iterations = 100
	var completed atomic.Int64

	for i := 0; i < iterations; i++ {
		done := make(chan struct{})
		pool.Schedule(Single(FuncTask(func() {
			completed.Add(1)
			close(done)
		})))
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("task %d never completed", i)
		}
		time.Sleep(50 * time.Millisecond)
	}

	require.Equal(t, int64(iterations), completed.Load())
}

// TestLastThiefHandoffUnderContention is scenario 5: N=2, worker A
// executes a long task while worker B sleeps; a third party submits new
// work. Expected: B wakes, becomes thief, and picks up the work.
func TestLastThiefHandoffUnderContention(t *testing.T) {
	pool, err := New(WithWorkerCount(2))
	require.NoError(t, err)
	defer pool.Shutdown()

	// Target worker 0 directly with the long task and worker 1 directly
	// with the follow-up: a foreign submission is only ever drained by
	// its own owning worker, so pool.Schedule's random pick would make
	// this scenario's outcome nondeterministic.
	longTaskRunning := make(chan struct{})
	longTaskRelease := make(chan struct{})
	pool.contexts[0].Submit(Single(FuncTask(func() {
		close(longTaskRunning)
		<-longTaskRelease
	})))

	select {
	case <-longTaskRunning:
	case <-time.After(time.Second):
		t.Fatal("long task never started")
	}

	// Give worker 1 time to exhaust the empty pool and sleep.
	time.Sleep(50 * time.Millisecond)

	done := make(chan struct{})
	pool.contexts[1].Submit(Single(FuncTask(func() { close(done) })))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sleeping peer never woke to pick up new work")
	}
	close(longTaskRelease)
}

// TestConstructionFailureRollback is scenario 6: forcing one worker's
// mandatory affinity pin to fail. Expected: already-started workers are
// cleanly stopped and joined, and the constructor reports failure.
func TestConstructionFailureRollback(t *testing.T) {
	const n = 8
	const failAt = 3

	original := setAffinity
	defer func() { setAffinity = original }()

	injectedErr := errors.New("injected pin failure")
	setAffinity = func(cpuID int) error {
		if cpuID == failAt {
			return injectedErr
		}
		return nil
	}

	cfg := control.NewPoolConfig(nil)
	cfg.Store().SetConfig(map[string]any{
		control.KeyPinWorkers:      true,
		control.KeyRequireAffinity: true,
	})

	pool, err := New(WithWorkerCount(n), WithConfig(cfg))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrSpawnFailed)
	require.Nil(t, pool)
}

// TestScheduleDuringShutdownDoesNotPanic exercises the infallible-shutdown
// property in a degenerate but real usage pattern: Schedule racing a
// concurrent Shutdown must not panic, even though the task may never run.
func TestScheduleDuringShutdownDoesNotPanic(t *testing.T) {
	pool, err := New(WithWorkerCount(4))
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		require.NotPanics(t, func() { pool.Schedule(Single(FuncTask(func() {}))) })
	}()
	go func() {
		defer wg.Done()
		require.NotPanics(t, func() { pool.Shutdown() })
	}()
	wg.Wait()
}

func TestShutdownIsIdempotent(t *testing.T) {
	pool, err := New(WithWorkerCount(2))
	require.NoError(t, err)
	require.NoError(t, pool.Shutdown())
	require.NoError(t, pool.Shutdown())
}

func TestInvalidWorkerCountRejected(t *testing.T) {
	_, err := New(WithWorkerCount(0))
	require.ErrorIs(t, err, ErrInvalidWorkerCount)

	_, err = New(WithWorkerCount(-1))
	require.ErrorIs(t, err, ErrInvalidWorkerCount)
}

func TestSnapshotReflectsQuiescentState(t *testing.T) {
	pool, err := New(WithWorkerCount(4))
	require.NoError(t, err)
	defer pool.Shutdown()

	done := make(chan struct{})
	pool.Schedule(Single(FuncTask(func() { close(done) })))
	<-done
	time.Sleep(20 * time.Millisecond)

	snap := pool.Snapshot()
	require.Equal(t, int64(0), snap[control.MetricActive].(int64))
	require.GreaterOrEqual(t, snap[control.MetricTasksResumed].(int64), int64(1))
}
