// Package control
// Author: momentics <momentics@gmail.com>
//
// Hot-reload configuration and runtime metrics for the lazypool
// scheduler.
//
// Provides concurrent-safe state handling primitives including:
//   - Immutable snapshot config reads and atomic updates (ConfigStore)
//   - Runtime observers for hot-reload (OnReload)
//   - Typed pool tunables layered over ConfigStore (PoolConfig)
//   - Metrics telemetry (MetricsRegistry, PoolMetrics)
package control
