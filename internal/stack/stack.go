// Package stack provides a linked LIFO stack.
//
// The stack is the explicit state behind the tree's in-order iterator and the
// medication list of a prescription. The zero value is an empty stack ready
// to use. A Stack is not safe for concurrent use.
package stack

import "iter"

type node[T any] struct {
	value T
	next  *node[T]
}

// Stack is a last-in first-out collection backed by a singly linked chain.
type Stack[T any] struct {
	top  *node[T]
	size int
}

// New creates an empty stack
func New[T any]() *Stack[T] {
	return &Stack[T]{}
}

// Push places v on top of the stack
func (s *Stack[T]) Push(v T) {
	s.top = &node[T]{value: v, next: s.top}
	s.size++
}

// Pop removes and returns the top value.
// The second result is false when the stack is empty.
func (s *Stack[T]) Pop() (T, bool) {
	if s.top == nil {
		var zero T
		return zero, false
	}
	n := s.top
	s.top = n.next
	n.next = nil
	s.size--
	return n.value, true
}

// Peek returns the top value without removing it
func (s *Stack[T]) Peek() (T, bool) {
	if s.top == nil {
		var zero T
		return zero, false
	}
	return s.top.value, true
}

// IsEmpty reports whether the stack holds no values
func (s *Stack[T]) IsEmpty() bool {
	return s.top == nil
}

// Len returns the number of values on the stack
func (s *Stack[T]) Len() int {
	return s.size
}

// All yields values from top to bottom without popping them.
func (s *Stack[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for n := s.top; n != nil; n = n.next {
			if !yield(n.value) {
				return
			}
		}
	}
}
