package bst

import (
	"cmp"
	"iter"

	"golang.org/x/exp/constraints"

	"github.com/dreamware/medrec/internal/list"
	"github.com/dreamware/medrec/internal/stack"
	"github.com/dreamware/medrec/internal/uattr"
)

// node owns its value and its two subtrees. Every value in left orders
// strictly before value, every value in right strictly after.
type node[T any] struct {
	value       T
	left, right *node[T]
}

// Tree is an ordered index over values of type T.
type Tree[T any] struct {
	root *node[T]
	cmp  func(a, b T) int
	size int
}

// New creates an empty tree ordered by cmp
func New[T any](cmp func(a, b T) int) *Tree[T] {
	return &Tree[T]{cmp: cmp}
}

// NewOrdered creates an empty tree over an ordered type
func NewOrdered[T constraints.Ordered]() *Tree[T] {
	return New(cmp.Compare[T])
}

// Len returns the number of stored values
func (t *Tree[T]) Len() int {
	return t.size
}

// IsEmpty reports whether the tree holds no values
func (t *Tree[T]) IsEmpty() bool {
	return t.root == nil
}

// Insert adds v and reports whether it was added.
// A value equal to an existing one under the tree order is discarded.
func (t *Tree[T]) Insert(v T) bool {
	var added bool
	t.root, added = t.insert(t.root, v)
	if added {
		t.size++
	}
	return added
}

func (t *Tree[T]) insert(n *node[T], v T) (*node[T], bool) {
	if n == nil {
		return &node[T]{value: v}, true
	}
	var added bool
	switch c := t.cmp(v, n.value); {
	case c < 0:
		n.left, added = t.insert(n.left, v)
	case c > 0:
		n.right, added = t.insert(n.right, v)
	}
	return n, added
}

// Contains reports whether a value equal to v is stored
func (t *Tree[T]) Contains(v T) bool {
	_, ok := t.Get(v)
	return ok
}

// Get returns a pointer to the stored value equal to probe under the tree
// order. Mutating fields that take part in the order corrupts the tree.
func (t *Tree[T]) Get(probe T) (*T, bool) {
	return t.get(t.root, probe)
}

func (t *Tree[T]) get(n *node[T], probe T) (*T, bool) {
	if n == nil {
		return nil, false
	}
	switch c := t.cmp(probe, n.value); {
	case c < 0:
		return t.get(n.left, probe)
	case c > 0:
		return t.get(n.right, probe)
	default:
		return &n.value, true
	}
}

// GetByUniqAttr descends the tree comparing key lexicographically against
// each node's unique attribute.
//
// The descent is only correct when the tree order agrees with the attribute
// order, which holds when the attribute is the ordering key itself. For any
// other attribute use Find.
func (t *Tree[T]) GetByUniqAttr(key string) (*T, bool) {
	return getByUniqAttr(t.root, key)
}

func getByUniqAttr[T any](n *node[T], key string) (*T, bool) {
	if n == nil {
		return nil, false
	}
	attr := uattr.Of(n.value)
	switch {
	case key == attr:
		return &n.value, true
	case key < attr:
		return getByUniqAttr(n.left, key)
	default:
		return getByUniqAttr(n.right, key)
	}
}

// Find returns the first value in ascending order for which match is true.
// It visits every node, so it works for any attribute.
func (t *Tree[T]) Find(match func(T) bool) (*T, bool) {
	for p := range t.pointers() {
		if match(*p) {
			return p, true
		}
	}
	return nil, false
}

// Max returns the rightmost value
func (t *Tree[T]) Max() (T, bool) {
	if t.root == nil {
		var zero T
		return zero, false
	}
	n := t.root
	for n.right != nil {
		n = n.right
	}
	return n.value, true
}

// Min returns the leftmost value
func (t *Tree[T]) Min() (T, bool) {
	if t.root == nil {
		var zero T
		return zero, false
	}
	n := t.root
	for n.left != nil {
		n = n.left
	}
	return n.value, true
}

// Height returns the number of nodes on the longest root-to-leaf path.
// An empty tree has height zero.
func (t *Tree[T]) Height() int {
	return height(t.root)
}

func height[T any](n *node[T]) int {
	if n == nil {
		return 0
	}
	return 1 + max(height(n.left), height(n.right))
}

// Remove deletes the value equal to probe and reports whether it was found.
func (t *Tree[T]) Remove(probe T) bool {
	var removed bool
	t.root, removed = t.remove(t.root, probe)
	if removed {
		t.size--
	}
	return removed
}

// remove returns the new root of the subtree n after deleting probe from it.
func (t *Tree[T]) remove(n *node[T], probe T) (*node[T], bool) {
	if n == nil {
		return nil, false
	}
	var removed bool
	switch c := t.cmp(probe, n.value); {
	case c < 0:
		n.left, removed = t.remove(n.left, probe)
		return n, removed
	case c > 0:
		n.right, removed = t.remove(n.right, probe)
		return n, removed
	}

	switch {
	case n.left == nil:
		right := n.right
		n.right = nil
		return right, true
	case n.right == nil:
		left := n.left
		n.left = nil
		return left, true
	}

	var successor T
	n.right, successor = extractMin(n.right)
	n.value = successor
	return n, true
}

// extractMin detaches the leftmost node of n and returns the remaining
// subtree together with the detached value.
func extractMin[T any](n *node[T]) (*node[T], T) {
	if n.left == nil {
		rest := n.right
		n.right = nil
		return rest, n.value
	}
	var v T
	n.left, v = extractMin(n.left)
	return n, v
}

// Balance rebuilds the tree into a height-balanced shape in O(n).
// Values are staged in a linked list by an in-order walk, reversed into
// ascending order and rebuilt by always rooting a range at its middle.
func (t *Tree[T]) Balance() {
	staged := list.New[T]()
	collectInOrder(t.root, staged)
	staged.Reverse()

	values := staged.Slice()
	t.root = build(values)
}

func collectInOrder[T any](n *node[T], into *list.List[T]) {
	if n == nil {
		return
	}
	collectInOrder(n.left, into)
	into.PushFront(n.value)
	collectInOrder(n.right, into)
}

func build[T any](values []T) *node[T] {
	if len(values) == 0 {
		return nil
	}
	mid := len(values) / 2
	return &node[T]{
		value: values[mid],
		left:  build(values[:mid]),
		right: build(values[mid+1:]),
	}
}

// All yields values in ascending order using an explicit stack.
// The walk is lazy and each call starts over from the root.
func (t *Tree[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for p := range t.pointers() {
			if !yield(*p) {
				return
			}
		}
	}
}

func (t *Tree[T]) pointers() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		pending := stack.New[*node[T]]()
		pushLeftSpine(pending, t.root)
		for {
			n, ok := pending.Pop()
			if !ok {
				return
			}
			if !yield(&n.value) {
				return
			}
			pushLeftSpine(pending, n.right)
		}
	}
}

func pushLeftSpine[T any](s *stack.Stack[*node[T]], n *node[T]) {
	for ; n != nil; n = n.left {
		s.Push(n)
	}
}

// PreOrder yields values root first. Inserting them in this order into an
// empty tree with the same ordering reproduces the current shape.
func (t *Tree[T]) PreOrder() iter.Seq[T] {
	return func(yield func(T) bool) {
		pending := stack.New[*node[T]]()
		if t.root != nil {
			pending.Push(t.root)
		}
		for {
			n, ok := pending.Pop()
			if !ok {
				return
			}
			if !yield(n.value) {
				return
			}
			if n.right != nil {
				pending.Push(n.right)
			}
			if n.left != nil {
				pending.Push(n.left)
			}
		}
	}
}
