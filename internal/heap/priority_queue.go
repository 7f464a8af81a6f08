package heap

import (
	"cmp"
	"iter"

	"golang.org/x/exp/constraints"
)

// PriorityQueue dequeues the lowest value first. It is a MaxHeap whose
// comparator is inverted, so the heap's maximum is the queue's minimum.
type PriorityQueue[T any] struct {
	heap *MaxHeap[T]
}

// NewQueue creates a min-first queue ordered by cmp with the given capacity.
// A capacity of zero or less leaves the queue unbounded.
func NewQueue[T any](cmp func(a, b T) int, capacity int) *PriorityQueue[T] {
	return &PriorityQueue[T]{heap: New(reverse(cmp), capacity)}
}

// NewOrderedQueue creates a min-first queue over an ordered type
func NewOrderedQueue[T constraints.Ordered](capacity int) *PriorityQueue[T] {
	return NewQueue(cmp.Compare[T], capacity)
}

func reverse[T any](cmp func(a, b T) int) func(a, b T) int {
	return func(a, b T) int { return cmp(b, a) }
}

// Push enqueues v, returning ErrOverflow when the queue is full
func (q *PriorityQueue[T]) Push(v T) error {
	return q.heap.Push(v)
}

// MustPush enqueues v and panics on overflow
func (q *PriorityQueue[T]) MustPush(v T) {
	q.heap.MustPush(v)
}

// Pop removes and returns the lowest value
func (q *PriorityQueue[T]) Pop() (T, bool) {
	return q.heap.Pop()
}

// Peek returns the lowest value without removing it
func (q *PriorityQueue[T]) Peek() (T, bool) {
	return q.heap.Peek()
}

// Len returns the number of queued values
func (q *PriorityQueue[T]) Len() int {
	return q.heap.Len()
}

// Cap returns the capacity given at construction; zero or less is unbounded
func (q *PriorityQueue[T]) Cap() int {
	return q.heap.Cap()
}

// IsEmpty reports whether the queue is empty
func (q *PriorityQueue[T]) IsEmpty() bool {
	return q.heap.IsEmpty()
}

// GetByUniqAttr finds a queued value by unique attribute
func (q *PriorityQueue[T]) GetByUniqAttr(key string) (*T, bool) {
	return q.heap.GetByUniqAttr(key)
}

// RemoveByUniqAttr removes a queued value by unique attribute
func (q *PriorityQueue[T]) RemoveByUniqAttr(key string) bool {
	return q.heap.RemoveByUniqAttr(key)
}

// Values yields queued values in heap level order, not priority order.
func (q *PriorityQueue[T]) Values() iter.Seq[T] {
	return q.heap.Values()
}
