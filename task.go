package lazypool

import "github.com/momentics/lazypool/api"

// TaskHandle re-exports api.TaskHandle at package level for callers that
// don't otherwise depend on the api package.
type TaskHandle = api.TaskHandle

// SubmissionNode re-exports api.SubmissionNode at package level.
type SubmissionNode = api.SubmissionNode

// FuncTask adapts a plain func() into a TaskHandle, for callers with no
// coroutine layer of their own.
type FuncTask func()

// Resume runs the wrapped function to completion.
func (f FuncTask) Resume() { f() }

// Chain is a simple singly linked SubmissionNode: a list of task handles
// built by a caller before a single Schedule call hands the whole batch
// to one worker. Each contained handle is resumed exactly once, because
// ForEach walks the list exactly once and the scheduler consumes a Chain
// exactly once per submission.
type Chain struct {
	head *chainNode
	tail *chainNode
}

type chainNode struct {
	task TaskHandle
	next *chainNode
}

// NewChain builds a Chain from zero or more task handles, preserving
// order.
func NewChain(tasks ...TaskHandle) *Chain {
	c := &Chain{}
	for _, t := range tasks {
		c.Add(t)
	}
	return c
}

// Add appends a task handle to the end of the chain.
func (c *Chain) Add(t TaskHandle) *Chain {
	n := &chainNode{task: t}
	if c.tail == nil {
		c.head = n
		c.tail = n
	} else {
		c.tail.next = n
		c.tail = n
	}
	return c
}

// Len returns the number of task handles in the chain.
func (c *Chain) Len() int {
	n := 0
	for cur := c.head; cur != nil; cur = cur.next {
		n++
	}
	return n
}

// ForEach resumes each task handle exactly once, in list order.
func (c *Chain) ForEach(resume func(TaskHandle)) {
	for cur := c.head; cur != nil; cur = cur.next {
		resume(cur.task)
	}
}

// singleNode adapts a single TaskHandle into a SubmissionNode without the
// allocation overhead of a one-element Chain.
type singleNode struct{ task TaskHandle }

// Single wraps a single task handle as a SubmissionNode.
func Single(t TaskHandle) SubmissionNode { return singleNode{task: t} }

func (s singleNode) ForEach(resume func(TaskHandle)) { resume(s.task) }
