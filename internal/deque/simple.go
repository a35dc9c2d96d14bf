package deque

import (
	"sync"

	"github.com/gammazero/deque"
)

// MutexDeque is a mutex-guarded double-ended queue backed by
// github.com/gammazero/deque, offered as a simpler alternative to
// ArrayDeque. The scheduler uses it for each worker's foreign-submission
// queue; every worker's task deque is an ArrayDeque.
type MutexDeque[T any] struct {
	mu sync.Mutex
	dq deque.Deque[T]
}

// NewMutexDeque creates an empty MutexDeque.
func NewMutexDeque[T any]() *MutexDeque[T] {
	return &MutexDeque[T]{}
}

// PushBottom appends val. Owner-only by convention, but safe for any caller
// since the whole structure is mutex-guarded.
func (m *MutexDeque[T]) PushBottom(val T) {
	m.mu.Lock()
	m.dq.PushBack(val)
	m.mu.Unlock()
}

// PopBottom removes and returns the most recently pushed item.
func (m *MutexDeque[T]) PopBottom() (item T, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dq.Len() == 0 {
		var zero T
		return zero, false
	}
	return m.dq.PopBack(), true
}

// StealTop removes and returns the oldest item.
func (m *MutexDeque[T]) StealTop() (item T, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dq.Len() == 0 {
		var zero T
		return zero, false
	}
	return m.dq.PopFront(), true
}

// Len returns the current number of queued items.
func (m *MutexDeque[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dq.Len()
}
