// Package list implements the singly linked list used throughout the record
// store: clinic rosters, drug groups, graph adjacency lists, trie results and
// the staging area of tree balancing.
//
// # Ordering
//
// Insertion is at the head, so iteration yields the most recently inserted
// value first:
//
//	l := list.New[string]()
//	l.PushFront("a")
//	l.PushFront("b")
//	// All() yields "b", "a"
//
// # Unique attributes
//
// GetByUniqAttr and RemoveByUniqAttr compare each value's unique attribute
// (see package uattr) against a key in a linear scan. Removal copies the
// successor's value and link into the matched node; when the match is the
// tail, the list walks to the second-to-last node and cuts the link.
//
// # Complexity
//
//   - PushFront, Pop, Head, Len: O(1)
//   - GetByUniqAttr, RemoveByUniqAttr, Contains, Remove, Reverse: O(n)
//
// Iterators returned by All and Pointers are lazy, forward-only and
// restartable; calling All again starts a fresh traversal.
//
// A List is not safe for concurrent use.
package list
