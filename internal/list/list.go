package list

import (
	"iter"

	"github.com/dreamware/medrec/internal/uattr"
)

// node is one link of the chain. It owns its value and the rest of the chain.
type node[T any] struct {
	value T
	next  *node[T]
}

// List is a singly linked list with most-recently-inserted-first ordering.
// The zero value is an empty list ready to use.
type List[T any] struct {
	head *node[T]
	size int
}

// New creates an empty list
func New[T any]() *List[T] {
	return &List[T]{}
}

// Of builds a list whose iteration yields values in the given order.
func Of[T any](values ...T) *List[T] {
	l := New[T]()
	for i := len(values) - 1; i >= 0; i-- {
		l.PushFront(values[i])
	}
	return l
}

// PushFront makes v the new head in O(1)
func (l *List[T]) PushFront(v T) {
	l.head = &node[T]{value: v, next: l.head}
	l.size++
}

// Insert is an alias for PushFront
func (l *List[T]) Insert(v T) {
	l.PushFront(v)
}

// Pop removes and returns the head value
func (l *List[T]) Pop() (T, bool) {
	if l.head == nil {
		var zero T
		return zero, false
	}
	n := l.head
	l.head = n.next
	n.next = nil
	l.size--
	return n.value, true
}

// Head returns the head value without removing it
func (l *List[T]) Head() (T, bool) {
	if l.head == nil {
		var zero T
		return zero, false
	}
	return l.head.value, true
}

// Len returns the number of values in the list
func (l *List[T]) Len() int {
	return l.size
}

// IsEmpty reports whether the list has no values
func (l *List[T]) IsEmpty() bool {
	return l.head == nil
}

// GetByUniqAttr scans from the head for the first value whose unique
// attribute equals key. The returned pointer aliases the stored value.
// It is invalidated by any RemoveByUniqAttr or RemoveFunc on the list, since
// removal shifts values between nodes.
func (l *List[T]) GetByUniqAttr(key string) (*T, bool) {
	for n := l.head; n != nil; n = n.next {
		if uattr.Of(n.value) == key {
			return &n.value, true
		}
	}
	return nil, false
}

// RemoveByUniqAttr removes the first value whose unique attribute equals key.
// The matched node takes over its successor's value and link; a match on the
// tail is removed through removeLast. Relative order of the rest is kept.
func (l *List[T]) RemoveByUniqAttr(key string) bool {
	for n := l.head; n != nil; n = n.next {
		if uattr.Of(n.value) != key {
			continue
		}
		if next := n.next; next != nil {
			n.value = next.value
			n.next = next.next
			next.next = nil
			l.size--
		} else {
			l.removeLast()
		}
		return true
	}
	return false
}

// removeLast drops the tail node by walking to the second-to-last node.
func (l *List[T]) removeLast() {
	if l.head == nil {
		return
	}
	if l.head.next == nil {
		l.head = nil
		l.size--
		return
	}
	secondLast := l.head
	for secondLast.next.next != nil {
		secondLast = secondLast.next
	}
	secondLast.next = nil
	l.size--
}

// RemoveFunc removes every value for which match returns true and reports
// how many were removed.
func (l *List[T]) RemoveFunc(match func(T) bool) int {
	removed := 0
	link := &l.head
	for *link != nil {
		n := *link
		if match(n.value) {
			*link = n.next
			n.next = nil
			removed++
			continue
		}
		link = &n.next
	}
	l.size -= removed
	return removed
}

// Reverse reverses the list in place in O(n)
func (l *List[T]) Reverse() {
	var prev *node[T]
	curr := l.head
	for curr != nil {
		next := curr.next
		curr.next = prev
		prev = curr
		curr = next
	}
	l.head = prev
}

// All yields values from head to tail. Each call starts a new traversal.
func (l *List[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for n := l.head; n != nil; n = n.next {
			if !yield(n.value) {
				return
			}
		}
	}
}

// Pointers yields a pointer to each stored value from head to tail,
// allowing in-place mutation during the walk.
func (l *List[T]) Pointers() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for n := l.head; n != nil; n = n.next {
			if !yield(&n.value) {
				return
			}
		}
	}
}

// Slice copies the values into a new slice in iteration order.
func (l *List[T]) Slice() []T {
	out := make([]T, 0, l.size)
	for n := l.head; n != nil; n = n.next {
		out = append(out, n.value)
	}
	return out
}

// Contains reports whether v is in l, comparing with ==.
func Contains[T comparable](l *List[T], v T) bool {
	for n := l.head; n != nil; n = n.next {
		if n.value == v {
			return true
		}
	}
	return false
}

// Remove deletes every occurrence of v from l and reports how many were
// removed.
func Remove[T comparable](l *List[T], v T) int {
	return l.RemoveFunc(func(x T) bool { return x == v })
}
