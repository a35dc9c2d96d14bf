package lazypool

import (
	"github.com/momentics/lazypool/internal/deque"
	"github.com/momentics/lazypool/internal/xoshiro"
)

// foreignQueue is the MPSC queue backing a worker's foreign-submission
// inbox: any goroutine may Submit; only the owning worker drains it via
// TryGetSubmitted. It is deliberately simpler than the steal deque (no
// concurrent consumer-side contention to resolve), and is the
// mutex-guarded gammazero/deque wrapper; task deques use ArrayDeque.
type foreignQueue = deque.MutexDeque[SubmissionNode]

// localDeque is the interface both deque implementations satisfy; the
// scheduler core only ever needs owner push/pop and foreign steal, so it
// depends on this narrow interface rather than a concrete type.
type localDeque interface {
	PushBottom(TaskHandle)
	PopBottom() (TaskHandle, bool)
	StealTop() (TaskHandle, bool)
}

// WorkerContext is the per-worker state: an id, a task deque, a
// foreign-submission queue, a PRNG, an ordered list of peer contexts for
// steal victims (NUMA-sorted into rings), and a shared pointer to the
// pool's shared atomics.
type WorkerContext struct {
	id int

	deque   localDeque
	foreign *foreignQueue

	rng *xoshiro.RNG

	// rings[i] is the i-th ring of peer contexts, nearest first. Built
	// once at pool construction by the NUMA placement oracle.
	rings [][]*WorkerContext

	atomics *sharedAtomics
	pool    *Pool
}

func newWorkerContext(id int, seed uint64, atomics *sharedAtomics, pool *Pool) *WorkerContext {
	return &WorkerContext{
		id:      id,
		deque:   deque.New[TaskHandle](256),
		foreign: deque.NewMutexDeque[SubmissionNode](),
		rng:     xoshiro.New(seed),
		atomics: atomics,
		pool:    pool,
	}
}

// ID returns the worker's index in [0, N).
func (w *WorkerContext) ID() int { return w.id }

// Submit is the thread-safe foreign enqueue contract: append node to this
// worker's foreign-submission queue, then broadcast a
// wake. NotifyAll (not NotifyOne) is used because external submissions
// are presumed rare and must not get stuck behind stale sleepers that a
// single notification fails to promote.
func (w *WorkerContext) Submit(node SubmissionNode) {
	w.foreign.PushBottom(node)
	if w.pool != nil {
		w.pool.metrics.IncSubmissions()
		w.pool.metrics.IncNotifyAll()
	}
	w.atomics.notifier.NotifyAll()
}

// TryGetSubmitted is the owner-only drain of the foreign-submission
// queue. It returns the most recently pushed pending submission, or false
// if empty.
// Foreign submissions are pushed and popped from the same end
// (PushBottom/PopBottom) since foreignQueue is single-consumer: no
// concurrent stealer ever calls StealTop on it.
func (w *WorkerContext) TryGetSubmitted() (SubmissionNode, bool) {
	return w.foreign.PopBottom()
}

// TrySteal attempts one steal from a peer chosen by the worker's PRNG,
// biased toward near NUMA neighbors: it draws one candidate from each
// ring in turn (nearest first) before giving up. The number of rings
// visited is capped by the pool's hot-reloadable
// control.PoolConfig.StealBackoffRings (default 1, i.e. nearest ring
// only); a higher value trades locality bias for a wider, more
// persistent search before the thief parks. With no pool attached (as
// in isolated tests), every ring is visited.
func (w *WorkerContext) TrySteal() (TaskHandle, bool) {
	rings := w.rings
	if w.pool != nil {
		if max := w.pool.config.StealBackoffRings(); max < len(rings) {
			rings = rings[:max]
		}
	}
	for _, ring := range rings {
		if len(ring) == 0 {
			continue
		}
		victim := ring[w.rng.Intn(len(ring))]
		if w.pool != nil {
			w.pool.metrics.IncStealAttempt()
		}
		if h, ok := victim.deque.StealTop(); ok {
			if w.pool != nil {
				w.pool.metrics.IncStealHit()
			}
			return h, true
		}
	}
	return nil, false
}

// Push is the owner-only deque push, used by the task layer when a
// resumed task spawns children.
func (w *WorkerContext) Push(h TaskHandle) { w.deque.PushBottom(h) }

// Pop is the owner-only deque pop.
func (w *WorkerContext) Pop() (TaskHandle, bool) { return w.deque.PopBottom() }
