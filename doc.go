// Package lazypool implements a lazy work-stealing scheduler: a
// fixed-size pool of worker goroutines that cooperatively execute a
// dynamically generated graph of fine-grained tasks, sleeping when idle
// and waking precisely when new work becomes available.
//
// The hard part is the idle/wake coordination protocol: a lock-free state
// machine over a packed counter of (thieves, active) counts that
// guarantees no work is ever stranded while allowing workers to genuinely
// sleep (not spin) under low load. See atomics.go for the protocol and
// worker.go for the per-worker loop that drives it.
//
// lazypool receives opaque submission nodes and task handles (see
// task.go) and knows only how to resume them; it does not implement a
// coroutine or promise system itself.
package lazypool
