// control/pool_config.go
// Author: momentics <momentics@gmail.com>
//
// Typed, hot-reloadable tunables for a lazypool.Pool, layered over the
// generic ConfigStore. Only non-structural knobs are reloadable: worker
// count and NUMA topology are fixed at construction.

package control

// Pool tunable keys, exported so callers can pre-populate a ConfigStore
// before handing it to a pool constructor.
const (
	KeyNUMAAwareness   = "numa_awareness"
	KeyPinWorkers      = "pin_workers"
	KeyStealBackoff    = "steal_backoff_rings"
	KeyRequireAffinity = "require_affinity"
)

// PoolConfig is a typed view over a ConfigStore for the scheduler's
// hot-reloadable tunables.
type PoolConfig struct {
	store *ConfigStore
}

// NewPoolConfig wraps store (or a fresh one, if nil) with typed pool
// accessors and installs sensible defaults.
func NewPoolConfig(store *ConfigStore) *PoolConfig {
	if store == nil {
		store = NewConfigStore()
	}
	pc := &PoolConfig{store: store}
	if _, ok := store.GetSnapshot()[KeyStealBackoff]; !ok {
		store.SetConfig(map[string]any{
			KeyNUMAAwareness:   true,
			KeyPinWorkers:      false,
			KeyStealBackoff:    1,
			KeyRequireAffinity: false,
		})
	}
	return pc
}

// NUMAAwareness reports whether placement should consult NUMA topology.
func (pc *PoolConfig) NUMAAwareness() bool {
	v, _ := pc.store.GetSnapshot()[KeyNUMAAwareness].(bool)
	return v
}

// PinWorkers reports whether workers should be pinned to OS threads/CPUs.
func (pc *PoolConfig) PinWorkers() bool {
	v, _ := pc.store.GetSnapshot()[KeyPinWorkers].(bool)
	return v
}

// StealBackoffRings returns the number of NUMA-ring escalation rounds a
// thief attempts before giving up on a single steal attempt.
func (pc *PoolConfig) StealBackoffRings() int {
	if v, ok := pc.store.GetSnapshot()[KeyStealBackoff].(int); ok && v > 0 {
		return v
	}
	return 1
}

// RequireAffinity reports whether a failed CPU pin aborts construction
// (true) or is merely logged and tolerated (false, the default).
func (pc *PoolConfig) RequireAffinity() bool {
	v, _ := pc.store.GetSnapshot()[KeyRequireAffinity].(bool)
	return v
}

// SetStealBackoffRings hot-reloads the steal backoff, notifying listeners.
func (pc *PoolConfig) SetStealBackoffRings(rings int) {
	pc.store.SetConfig(map[string]any{KeyStealBackoff: rings})
}

// Store exposes the underlying ConfigStore for callers that want to
// register their own OnReload listeners.
func (pc *PoolConfig) Store() *ConfigStore { return pc.store }
