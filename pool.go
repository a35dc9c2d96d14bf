// Package lazypool: Pool Facade.
package lazypool

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/momentics/lazypool/affinity"
	"github.com/momentics/lazypool/api"
	"github.com/momentics/lazypool/control"
	"github.com/momentics/lazypool/internal/numa"
	"github.com/momentics/lazypool/internal/xoshiro"

	"go.uber.org/automaxprocs/maxprocs"
)

// init tunes GOMAXPROCS for cgroup CPU limits (container quotas) before
// New ever reads runtime.GOMAXPROCS(0) for its default worker count.
// Errors are non-fatal: an unconstrained environment (e.g. a developer's
// laptop) simply leaves GOMAXPROCS at its Go-runtime default.
func init() {
	if _, err := maxprocs.Set(maxprocs.Logger(func(string, ...any) {})); err != nil {
		poolLogger().Debug().Err(err).Log(`automaxprocs: GOMAXPROCS left unchanged`)
	}
}

// Compile-time interface compliance, asserting boundary contracts where
// a concrete type is defined.
var (
	_ api.Scheduler        = (*Pool)(nil)
	_ api.GracefulShutdown = (*Pool)(nil)
)

// Error taxonomy for pool-level failures, built on the
// structured api.Error so callers can branch on ErrorCode rather than
// string-matching. Runtime errors inside tasks never propagate through
// these; see worker.go's panic recovery instead. Shutdown itself is
// infallible and has no corresponding sentinel.
var (
	ErrInvalidWorkerCount = api.NewError(api.ErrCodeInvalidArgument, "lazypool: invalid worker count")
	ErrSpawnFailed        = api.NewError(api.ErrCodeInternal, "lazypool: worker spawn failed")
)

// Pool is a lazy work-stealing scheduler: a fixed-size set of worker
// goroutines that cooperatively execute submitted tasks, sleeping when
// idle and waking precisely when new work arrives.
type Pool struct {
	contexts []*WorkerContext
	atomics  *sharedAtomics

	rng *xoshiro.RNG
	mu  sync.Mutex // guards rng draws in Schedule

	wg        sync.WaitGroup
	closeOnce sync.Once

	config  *control.PoolConfig
	metrics *control.PoolMetrics
}

// Option configures a Pool at construction time.
type Option func(*poolSettings)

type poolSettings struct {
	workerCount int
	config      *control.PoolConfig
	metrics     *control.PoolMetrics
}

// WithWorkerCount overrides the default worker count
// (runtime.GOMAXPROCS(0)).
func WithWorkerCount(n int) Option {
	return func(s *poolSettings) { s.workerCount = n }
}

// WithConfig installs a pre-populated control.PoolConfig, letting callers
// share one ConfigStore across multiple pools or pre-set tunables before
// the first worker starts.
func WithConfig(cfg *control.PoolConfig) Option {
	return func(s *poolSettings) { s.config = cfg }
}

// WithMetrics installs a pre-constructed control.PoolMetrics, letting
// callers share one MetricsRegistry across multiple pools.
func WithMetrics(m *control.PoolMetrics) Option {
	return func(s *poolSettings) { s.metrics = m }
}

// New constructs a Pool and spawns its worker goroutines. The worker
// count defaults to runtime.GOMAXPROCS(0) when WithWorkerCount is not
// given, already tuned for cgroup CPU limits by automaxprocs's
// package-init side effect; a count <= 0 is rejected with
// ErrInvalidWorkerCount. If spawning fails
// partway through, already-started workers are cleanly shut down and
// joined before the failure is returned.
func New(opts ...Option) (*Pool, error) {
	settings := poolSettings{workerCount: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.workerCount <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWorkerCount, settings.workerCount)
	}
	if settings.config == nil {
		settings.config = control.NewPoolConfig(nil)
	}
	if settings.metrics == nil {
		settings.metrics = control.NewPoolMetrics(nil)
	}

	n := settings.workerCount

	p := &Pool{
		atomics: newSharedAtomics(settings.metrics),
		rng:     xoshiro.New(uint64(n)*2654435761 + 1),
		config:  settings.config,
		metrics: settings.metrics,
	}

	seed := xoshiro.New(0x9e3779b97f4a7c15)
	p.contexts = make([]*WorkerContext, n)
	for i := 0; i < n; i++ {
		p.contexts[i] = newWorkerContext(i, seed.Next(), p.atomics, p)
		seed.LongJump()
	}

	assignRings(p.contexts, settings.config.NUMAAwareness())

	if err := p.spawnWorkers(settings.config.PinWorkers(), settings.config.RequireAffinity()); err != nil {
		return nil, err
	}

	return p, nil
}

// assignRings asks the NUMA placement oracle to compute, for each worker,
// an ordered list of neighbor rings, nearest first.
// When awareness is disabled, every worker gets a single ring containing
// every peer, i.e. uniform random stealing with no locality bias.
func assignRings(contexts []*WorkerContext, awareness bool) {
	n := len(contexts)
	var topo numa.Topology
	if awareness {
		topo = numa.Discover(n)
	} else {
		nodes := make([]int, n)
		for i := range nodes {
			nodes[i] = 0
		}
		topo = numa.Topology{NodeOf: nodes}
	}

	rings := topo.Rings(n)
	for i, ctx := range contexts {
		ctx.rings = make([][]*WorkerContext, len(rings[i]))
		for r, ring := range rings[i] {
			peers := make([]*WorkerContext, len(ring))
			for j, idx := range ring {
				peers[j] = contexts[idx]
			}
			ctx.rings[r] = peers
		}
	}
}

// setAffinity indirects affinity.SetAffinity so tests can inject pin
// failures without depending on the host's real CPU topology.
var setAffinity = affinity.SetAffinity

// spawnWorkers starts one goroutine per worker context. If pin is true,
// each worker goroutine locks itself to an OS thread and attempts
// setAffinity(id). When mandatory is false (the default), a pinning
// failure is logged but tolerated, mirroring a best-effort pin helper
// that merely logs on failure rather than aborting.
//
// When mandatory is true, workers are brought up one at a time so a pin
// failure can be attributed to a specific worker; on failure, every
// already-started worker is cleanly stopped and joined before the error
// is returned.
func (p *Pool) spawnWorkers(pin, mandatory bool) error {
	if !pin || !mandatory {
		for _, ctx := range p.contexts {
			ctx := ctx
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				if pin {
					runtime.LockOSThread()
					defer runtime.UnlockOSThread()
					if err := setAffinity(ctx.id); err != nil {
						poolLogger().Debug().Any(`worker`, ctx.id).Err(err).Log(`affinity pin failed, continuing unpinned`)
					}
				}
				runWorker(ctx)
			}()
		}
		return nil
	}

	for _, ctx := range p.contexts {
		ctx := ctx
		pinned := make(chan error, 1)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			err := setAffinity(ctx.id)
			pinned <- err
			if err != nil {
				return
			}
			runWorker(ctx)
		}()

		if err := <-pinned; err != nil {
			p.atomics.requestStop()
			p.wg.Wait()
			return fmt.Errorf("%w: worker %d: %v", ErrSpawnFailed, ctx.id, err)
		}
	}
	return nil
}

// Schedule picks a uniform-random worker context and hands it node.
// Non-blocking and safe to call from any goroutine, including from
// inside a running task.
func (p *Pool) Schedule(node SubmissionNode) {
	p.mu.Lock()
	idx := p.rng.Intn(len(p.contexts))
	p.mu.Unlock()
	p.contexts[idx].Submit(node)
}

// Shutdown requests every worker to stop, wakes any sleepers, and joins
// all worker goroutines. Safe to call more than once, and safe to call
// even when no work was ever submitted.
func (p *Pool) Shutdown() error {
	p.closeOnce.Do(func() {
		p.atomics.requestStop()
		p.wg.Wait()
	})
	return nil
}

// Snapshot publishes the pool's current (thieves, active, sleepers)
// gauges and every monotonic counter into its metrics registry, then
// returns the registry's snapshot map for inspection.
func (p *Pool) Snapshot() map[string]any {
	thieves, active := p.atomics.counts()
	sleepers := uint32(len(p.contexts)) - thieves - active
	p.metrics.Publish(int64(thieves), int64(active), int64(sleepers))
	return p.metrics.Registry().GetSnapshot()
}

// NumWorkers returns the fixed worker count this pool was constructed
// with.
func (p *Pool) NumWorkers() int { return len(p.contexts) }
