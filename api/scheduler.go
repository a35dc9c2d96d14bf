// Package api defines the boundary contracts between the scheduler core
// and its two external collaborators: the task/coroutine layer that
// produces work, and the platform affinity backend that places workers.
//
// Author: momentics
package api

// TaskHandle is an opaque resumable continuation. Exactly one worker
// resumes a given handle, and resumption runs to completion: it may spawn
// children and push them onto the resuming worker's own deque, but it
// never yields back to the scheduler mid-flight.
type TaskHandle interface {
	// Resume runs the task to completion on the calling goroutine.
	Resume()
}

// SubmissionNode is an opaque handle representing either a single task or
// an intrusively linked chain of tasks awaiting entry into the scheduler.
// It is produced by the task layer and consumed exactly once by a worker.
type SubmissionNode interface {
	// ForEach resumes each task handle contained in the node exactly
	// once, in arbitrary order.
	ForEach(func(TaskHandle))
}

// Scheduler is the contract the scheduler core presents to the task
// layer: a non-blocking, thread-safe handoff of zero or more tasks.
type Scheduler interface {
	// Schedule hands node to a worker for eventual execution. Returns
	// immediately; never blocks on the node's completion.
	Schedule(node SubmissionNode)
}
