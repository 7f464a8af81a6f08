// Package heap provides a capacity-bounded binary max-heap and a min-first
// priority queue built on top of it.
//
// # Capacity
//
// Heaps are created with an explicit capacity; DefaultCapacity (100) matches
// the record store's patient queues. Push on a full heap returns ErrOverflow
// and leaves the heap untouched, so callers never lose data silently.
// MustPush keeps the strict mode where overflow is fatal:
//
//	h := heap.NewOrdered[int](2)
//	_ = h.Push(1)
//	_ = h.Push(2)
//	err := h.Push(3) // errors.Is(err, heap.ErrOverflow)
//	h.MustPush(3)    // panics
//
// A capacity of zero or less makes the heap unbounded.
//
// # Priority queue
//
// PriorityQueue inverts the comparator, so Pop returns the value with the
// lowest priority number first:
//
//	q := heap.NewOrderedQueue[int](heap.DefaultCapacity)
//	for _, p := range []int{5, 1, 10, 3} {
//	    q.MustPush(p)
//	}
//	// Pop yields 1, 3, 5, 10
//
// # Removal by unique attribute
//
// RemoveByUniqAttr moves the last occupied slot into the removed slot and
// re-sifts it both ways, keeping the shape and order invariants. Lookup by
// attribute is a linear scan of the backing array.
//
// Heaps are not safe for concurrent use.
package heap
