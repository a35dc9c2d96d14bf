package lazypool

// runWorker is the per-worker state machine: a cycle of THIEF -> ACTIVE ->
// THIEF, with a sleep handshake that only parks the worker once it has
// proven (under the packed counter protocol) that doing so cannot strand
// a stranger's work.
//
// The worker enters as a thief (registering +1 in the shared counter)
// exactly once, whether this is the initial start or a wakeup from
// sleep; every subsequent iteration re-enters the "continue as thief"
// label below without re-registering.
func runWorker(ctx *WorkerContext) {
	ctx.atomics.enterAsThief()

	for {
	continueAsThief:
		if node, ok := ctx.TryGetSubmitted(); ok {
			ctx.atomics.thiefRoundTrip(func() { resumeNode(ctx, node) })
			goto continueAsThief
		}
		if h, ok := ctx.TrySteal(); ok {
			ctx.atomics.thiefRoundTrip(func() { resumeTask(ctx, h) })
			goto continueAsThief
		}

		// Fast path exhausted: try to sleep. The event-count idiom
		// requires the wake condition be re-evaluated after obtaining
		// the key but before committing to Wait, eliminating the
		// lost-wakeup window.
		key := ctx.atomics.notifier.PrepareWait()

		if node, ok := ctx.TryGetSubmitted(); ok {
			// Check our own queue strictly before the stop flag: an
			// in-flight submission must never be dropped even if
			// shutdown is concurrently requested.
			ctx.atomics.notifier.CancelWait()
			ctx.atomics.thiefRoundTrip(func() { resumeNode(ctx, node) })
			goto continueAsThief
		}

		if ctx.atomics.stop.Load() {
			// Honor stop under the assumption the caller has ensured no
			// further submissions occur. Leave a "ghost thief": the
			// thief counter is deliberately left un-decremented because
			// no worker may sleep once stop is set, so it is never
			// consulted again.
			ctx.atomics.notifier.CancelWait()
			return
		}

		if safeToSleep := ctx.atomics.thiefToSleeper(); !safeToSleep {
			// Restoring the invariant promoted us straight back to
			// thief; resume hunting without sleeping.
			goto continueAsThief
		}

		ctx.atomics.notifier.Wait(key)
		// Wait may return spuriously; loop back and re-evaluate from
		// the top, registering as a thief again either way.
		ctx.atomics.enterAsThief()
	}
}

// resumeNode resumes every task handle contained in node exactly once,
// pushing newly observed children onto this worker's own deque via the
// WorkerContext passed to tasks that implement ContextAwareTask.
func resumeNode(ctx *WorkerContext, node SubmissionNode) {
	node.ForEach(func(h TaskHandle) { resumeTask(ctx, h) })
}

// resumeTask runs a single task handle to completion on the calling
// worker, recovering from panics so a misbehaving task cannot take down
// the whole pool.
func resumeTask(ctx *WorkerContext, h TaskHandle) {
	defer func() {
		if r := recover(); r != nil {
			poolLogger().Err().Any(`recover`, r).Log(`task panicked`)
		}
	}()
	if ctx.pool != nil {
		ctx.pool.metrics.IncTasksResumed()
	}
	if aware, ok := h.(ContextAwareTask); ok {
		aware.ResumeWith(ctx)
		return
	}
	h.Resume()
}

// ContextAwareTask is an optional extension of TaskHandle for tasks that
// need to push children onto the resuming worker's own deque. Tasks that
// don't need this may simply implement TaskHandle.Resume.
type ContextAwareTask interface {
	TaskHandle
	// ResumeWith runs the task to completion, with access to the
	// resuming worker's context for pushing spawned children.
	ResumeWith(ctx *WorkerContext)
}
