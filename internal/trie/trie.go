// Package trie implements a prefix tree over lowercase ASCII words, used to
// suggest drug names that start with a typed prefix.
//
// Only the letters a through z are accepted. Insert rejects any other byte
// with ErrInvalidWord; Search and AutoComplete treat such input as absent.
// A Trie is not safe for concurrent use.
package trie

import (
	"github.com/pkg/errors"

	"github.com/dreamware/medrec/internal/list"
)

const alphabet = 26

// ErrInvalidWord is returned for input containing bytes outside a-z.
var ErrInvalidWord = errors.New("word must contain only lowercase letters a-z")

type node struct {
	children [alphabet]*node
	end      bool
}

// Trie stores a set of words
type Trie struct {
	root  node
	words int
}

// New creates an empty trie
func New() *Trie {
	return &Trie{}
}

// Len returns the number of distinct words stored
func (t *Trie) Len() int {
	return t.words
}

// Insert adds word in O(len(word)). Inserting an existing word is a no-op.
func (t *Trie) Insert(word string) error {
	if err := validate(word); err != nil {
		return err
	}
	curr := &t.root
	for i := 0; i < len(word); i++ {
		idx := word[i] - 'a'
		if curr.children[idx] == nil {
			curr.children[idx] = &node{}
		}
		curr = curr.children[idx]
	}
	if !curr.end {
		curr.end = true
		t.words++
	}
	return nil
}

// Search reports whether word was inserted
func (t *Trie) Search(word string) bool {
	n := t.walk(word)
	return n != nil && n.end
}

// AutoComplete returns every stored word that starts with prefix.
// The result is complete but carries no ordering guarantee; an absent or
// invalid prefix yields an empty list.
func (t *Trie) AutoComplete(prefix string) *list.List[string] {
	results := list.New[string]()
	n := t.walk(prefix)
	if n == nil {
		return results
	}
	buf := []byte(prefix)
	collect(n, buf, results)
	return results
}

// walk follows prefix from the root, returning nil when the path is absent.
func (t *Trie) walk(prefix string) *node {
	if validate(prefix) != nil {
		return nil
	}
	curr := &t.root
	for i := 0; i < len(prefix); i++ {
		curr = curr.children[prefix[i]-'a']
		if curr == nil {
			return nil
		}
	}
	return curr
}

func collect(n *node, prefix []byte, results *list.List[string]) {
	if n.end {
		results.PushFront(string(prefix))
	}
	for i, child := range n.children {
		if child != nil {
			collect(child, append(prefix, byte('a'+i)), results)
		}
	}
}

func validate(word string) error {
	for i := 0; i < len(word); i++ {
		if c := word[i]; c < 'a' || c > 'z' {
			return errors.Wrapf(ErrInvalidWord, "%q at offset %d", c, i)
		}
	}
	return nil
}
