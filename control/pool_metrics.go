// control/pool_metrics.go
// Author: momentics <momentics@gmail.com>
//
// Typed, named metrics published by a lazypool.Pool onto the generic
// MetricsRegistry: live T/A/S gauges and monotonic counters for
// submissions, steal attempts/hits, notifications, and tasks resumed.

package control

import "sync/atomic"

// Metric name keys, exported so external collectors (Prometheus
// exporters, debug endpoints) can look them up by name.
const (
	MetricThieves      = "lazypool_thieves"
	MetricActive       = "lazypool_active"
	MetricSleepers     = "lazypool_sleepers"
	MetricTasksResumed = "lazypool_tasks_resumed_total"
	MetricStealAttempt = "lazypool_steal_attempts_total"
	MetricStealHit     = "lazypool_steal_hits_total"
	MetricSubmissions  = "lazypool_submissions_total"
	MetricNotifyOne    = "lazypool_notify_one_total"
	MetricNotifyAll    = "lazypool_notify_all_total"
)

// PoolMetrics is a typed view over a MetricsRegistry for the scheduler's
// runtime counters. Counters are atomics; gauges are published to the
// registry only on request via Publish, since the registry's map is not
// tuned for per-task-resumption write rates.
type PoolMetrics struct {
	registry *MetricsRegistry

	tasksResumed atomic.Int64
	stealAttempt atomic.Int64
	stealHit     atomic.Int64
	submissions  atomic.Int64
	notifyOne    atomic.Int64
	notifyAll    atomic.Int64
}

// NewPoolMetrics wraps registry (or a fresh one, if nil).
func NewPoolMetrics(registry *MetricsRegistry) *PoolMetrics {
	if registry == nil {
		registry = NewMetricsRegistry()
	}
	return &PoolMetrics{registry: registry}
}

func (pm *PoolMetrics) IncTasksResumed()   { pm.tasksResumed.Add(1) }
func (pm *PoolMetrics) IncStealAttempt()   { pm.stealAttempt.Add(1) }
func (pm *PoolMetrics) IncStealHit()       { pm.stealHit.Add(1) }
func (pm *PoolMetrics) IncSubmissions()    { pm.submissions.Add(1) }
func (pm *PoolMetrics) IncNotifyOne()      { pm.notifyOne.Add(1) }
func (pm *PoolMetrics) IncNotifyAll()      { pm.notifyAll.Add(1) }

// Publish writes the current gauge values (thieves, active, sleepers) and
// a snapshot of every counter into the underlying registry.
func (pm *PoolMetrics) Publish(thieves, active, sleepers int64) {
	pm.registry.Set(MetricThieves, thieves)
	pm.registry.Set(MetricActive, active)
	pm.registry.Set(MetricSleepers, sleepers)
	pm.registry.Set(MetricTasksResumed, pm.tasksResumed.Load())
	pm.registry.Set(MetricStealAttempt, pm.stealAttempt.Load())
	pm.registry.Set(MetricStealHit, pm.stealHit.Load())
	pm.registry.Set(MetricSubmissions, pm.submissions.Load())
	pm.registry.Set(MetricNotifyOne, pm.notifyOne.Load())
	pm.registry.Set(MetricNotifyAll, pm.notifyAll.Load())
}

// Registry exposes the underlying MetricsRegistry for callers that want
// direct snapshot access.
func (pm *PoolMetrics) Registry() *MetricsRegistry { return pm.registry }
