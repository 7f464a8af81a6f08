// Package bst implements the binary search tree that indexes users and
// drugs in the record store.
//
// # Ordering and duplicates
//
// A Tree is ordered by the comparator given to New (NewOrdered uses the
// natural order). Inserting a value that compares equal to a stored value is
// a no-op and Insert reports false.
//
// # Deletion
//
// Remove is written functionally: each recursive step returns the root of the
// subtree it was given after the deletion. At the target node a leaf or a
// node with only a right child is replaced by its right subtree, a node with
// only a left child by its left subtree, and a node with two children takes
// the minimum of its right subtree, which is detached by extractMin. A
// detached node is cleared before it is dropped, so no node is ever linked
// from two parents.
//
// # Balancing
//
// Balance collects every value in order into a list.List, reverses the list
// to ascending order and rebuilds the tree by rooting each range at its
// middle element. The resulting height is ceil(log2(n+1)).
//
// # Lookup by unique attribute
//
// GetByUniqAttr descends by comparing the key against each node's unique
// attribute. That is correct only when the attribute order matches the tree
// order. A tree of drugs ordered by numeric id cannot be searched by name
// this way; use Find, which scans every node in order:
//
//	drugs := bst.New(func(a, b Drug) int { return cmp.Compare(a.ID, b.ID) })
//	d, ok := drugs.Find(func(d Drug) bool { return d.Name == "aspirin" })
//
// # Iteration
//
// All yields values in ascending order through an explicit stack.Stack: push
// the left spine, pop a node, yield it, push the left spine of its right
// subtree, repeat. Iteration is lazy and restartable. PreOrder yields a
// shape-preserving order used for snapshots.
//
// Trees are not safe for concurrent use.
package bst
