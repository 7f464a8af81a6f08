package heap

import (
	"cmp"
	"iter"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"

	"github.com/dreamware/medrec/internal/uattr"
)

// DefaultCapacity is the slot count of a heap created with NewDefault.
const DefaultCapacity = 100

// ErrOverflow is returned by Push when the heap is at capacity.
var ErrOverflow = errors.New("heap overflow")

// MaxHeap is an array-backed complete binary tree whose root is its largest
// value. Parent of slot i is (i-1)/2; children are 2i+1 and 2i+2.
type MaxHeap[T any] struct {
	data     []T
	cmp      func(a, b T) int
	capacity int
}

// New creates a heap ordered by cmp holding at most capacity values.
// A capacity of zero or less leaves the heap unbounded.
func New[T any](cmp func(a, b T) int, capacity int) *MaxHeap[T] {
	h := &MaxHeap[T]{cmp: cmp, capacity: capacity}
	if capacity > 0 {
		h.data = make([]T, 0, capacity)
	}
	return h
}

// NewDefault creates a heap with DefaultCapacity slots
func NewDefault[T any](cmp func(a, b T) int) *MaxHeap[T] {
	return New(cmp, DefaultCapacity)
}

// NewOrdered creates a heap over an ordered type using its natural order
func NewOrdered[T constraints.Ordered](capacity int) *MaxHeap[T] {
	return New(cmp.Compare[T], capacity)
}

// Push appends v and sifts it up.
// It returns ErrOverflow without modifying the heap when it is full.
func (h *MaxHeap[T]) Push(v T) error {
	if h.capacity > 0 && len(h.data) >= h.capacity {
		return errors.Wrapf(ErrOverflow, "capacity %d", h.capacity)
	}
	h.data = append(h.data, v)
	h.siftUp(len(h.data) - 1)
	return nil
}

// MustPush is Push in strict-capacity mode: it panics on overflow instead
// of returning an error.
func (h *MaxHeap[T]) MustPush(v T) {
	if err := h.Push(v); err != nil {
		panic(err)
	}
}

// Pop removes and returns the largest value
func (h *MaxHeap[T]) Pop() (T, bool) {
	if len(h.data) == 0 {
		var zero T
		return zero, false
	}
	top := h.data[0]
	h.removeAt(0)
	return top, true
}

// Peek returns the largest value without removing it
func (h *MaxHeap[T]) Peek() (T, bool) {
	if len(h.data) == 0 {
		var zero T
		return zero, false
	}
	return h.data[0], true
}

// Len returns the number of occupied slots
func (h *MaxHeap[T]) Len() int {
	return len(h.data)
}

// Cap returns the capacity given at construction; zero or less is unbounded
func (h *MaxHeap[T]) Cap() int {
	return h.capacity
}

// IsEmpty reports whether the heap has no values
func (h *MaxHeap[T]) IsEmpty() bool {
	return len(h.data) == 0
}

// GetByUniqAttr scans the backing array for a value whose unique attribute
// equals key. The pointer is valid until the next mutation.
func (h *MaxHeap[T]) GetByUniqAttr(key string) (*T, bool) {
	for i := range h.data {
		if uattr.Of(h.data[i]) == key {
			return &h.data[i], true
		}
	}
	return nil, false
}

// RemoveByUniqAttr removes the first value whose unique attribute equals key.
// The last occupied slot fills the hole and is re-sifted, so the heap stays
// complete and ordered.
func (h *MaxHeap[T]) RemoveByUniqAttr(key string) bool {
	for i := range h.data {
		if uattr.Of(h.data[i]) == key {
			h.removeAt(i)
			return true
		}
	}
	return false
}

// Values yields the occupied slots in level order.
func (h *MaxHeap[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range h.data {
			if !yield(v) {
				return
			}
		}
	}
}

func (h *MaxHeap[T]) removeAt(i int) {
	last := len(h.data) - 1
	h.data[i] = h.data[last]
	var zero T
	h.data[last] = zero
	h.data = h.data[:last]
	if i < last {
		h.siftDown(i)
		h.siftUp(i)
	}
}

func (h *MaxHeap[T]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.cmp(h.data[i], h.data[parent]) <= 0 {
			return
		}
		h.data[i], h.data[parent] = h.data[parent], h.data[i]
		i = parent
	}
}

func (h *MaxHeap[T]) siftDown(i int) {
	n := len(h.data)
	for {
		largest := i
		left, right := 2*i+1, 2*i+2
		if left < n && h.cmp(h.data[left], h.data[largest]) > 0 {
			largest = left
		}
		if right < n && h.cmp(h.data[right], h.data[largest]) > 0 {
			largest = right
		}
		if largest == i {
			return
		}
		h.data[i], h.data[largest] = h.data[largest], h.data[i]
		i = largest
	}
}
