// File: cmd/lazypool-demo/main.go
// Author: momentics <momentics@gmail.com>
//
// Demonstrates a single fork-join computation over the lazypool scheduler:
// summing 1..1000 by recursively splitting the range in half, spawning the
// right half as a child task, and reducing on join.
package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/momentics/lazypool"
)

// rangeSumTask sums [lo, hi) by binary splitting, forking the right half
// onto the resuming worker's own deque and running the left half inline.
// It implements lazypool.ContextAwareTask so it can push its forked child.
type rangeSumTask struct {
	lo, hi int
	result *int
	wg     *sync.WaitGroup
}

func (t *rangeSumTask) Resume() { t.ResumeWith(nil) }

func (t *rangeSumTask) ResumeWith(ctx *lazypool.WorkerContext) {
	defer t.wg.Done()

	const grain = 32
	if t.hi-t.lo <= grain {
		sum := 0
		for i := t.lo; i < t.hi; i++ {
			sum += i
		}
		*t.result = sum
		return
	}

	mid := t.lo + (t.hi-t.lo)/2
	rightResult := new(int)
	rightWG := &sync.WaitGroup{}
	rightWG.Add(1)
	right := &rangeSumTask{lo: mid, hi: t.hi, result: rightResult, wg: rightWG}

	if ctx != nil {
		ctx.Push(right)
	} else {
		right.Resume()
	}

	leftResult := new(int)
	leftWG := &sync.WaitGroup{}
	leftWG.Add(1)
	left := &rangeSumTask{lo: t.lo, hi: mid, result: leftResult, wg: leftWG}
	left.Resume()
	leftWG.Wait()

	if ctx != nil {
		// Nobody stole it yet: run it ourselves instead of idling on the
		// wait group while some other worker's deque sits empty.
		if h, ok := ctx.Pop(); ok {
			h.Resume()
		}
	}
	rightWG.Wait()

	*t.result = *leftResult + *rightResult
}

func main() {
	pool, err := lazypool.New(lazypool.WithWorkerCount(4))
	if err != nil {
		fmt.Fprintln(os.Stderr, "lazypool: construction failed:", err)
		os.Exit(1)
	}
	defer pool.Shutdown()

	result := new(int)
	wg := &sync.WaitGroup{}
	wg.Add(1)
	root := &rangeSumTask{lo: 1, hi: 1001, result: result, wg: wg}

	pool.Schedule(lazypool.Single(root))
	wg.Wait()

	fmt.Printf("sum(1..1000) = %d\n", *result)
	fmt.Printf("workers = %d, snapshot = %v\n", pool.NumWorkers(), pool.Snapshot())
}
