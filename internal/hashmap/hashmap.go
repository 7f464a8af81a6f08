// Package hashmap implements a separately chained hash map with a fixed
// bucket count.
//
// The table is sized once at construction and never grows. Lookups cost O(1)
// on average but degrade towards O(n) as the number of entries outgrows the
// bucket count or the key distribution skews; LoadFactor exposes that
// ceiling. A HashMap is not safe for concurrent use.
package hashmap

import (
	"hash/fnv"
	"iter"
)

// DefaultBuckets is the bucket count used by NewString.
const DefaultBuckets = 16

// HashFunc maps a key to a 64-bit hash.
type HashFunc[K any] func(K) uint64

type entry[K comparable, V any] struct {
	key   K
	value V
}

// HashMap maps keys to values through a fixed array of buckets.
type HashMap[K comparable, V any] struct {
	buckets [][]entry[K, V]
	hash    HashFunc[K]
	size    int
}

// New creates a map with the given hash function and bucket count.
// A bucket count below one falls back to DefaultBuckets.
func New[K comparable, V any](hash HashFunc[K], buckets int) *HashMap[K, V] {
	if buckets < 1 {
		buckets = DefaultBuckets
	}
	return &HashMap[K, V]{
		buckets: make([][]entry[K, V], buckets),
		hash:    hash,
	}
}

// NewString creates a string-keyed map with DefaultBuckets buckets
func NewString[V any]() *HashMap[string, V] {
	return New[string, V](HashString, DefaultBuckets)
}

// NewStringSized creates a string-keyed map with the given bucket count
func NewStringSized[V any](buckets int) *HashMap[string, V] {
	return New[string, V](HashString, buckets)
}

// HashString hashes a string with FNV-1a
func HashString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

func (m *HashMap[K, V]) index(key K) int {
	return int(m.hash(key) % uint64(len(m.buckets)))
}

// Insert stores value under key, replacing any existing value.
func (m *HashMap[K, V]) Insert(key K, value V) {
	idx := m.index(key)
	bucket := m.buckets[idx]
	for i := range bucket {
		if bucket[i].key == key {
			bucket[i].value = value
			return
		}
	}
	m.buckets[idx] = append(bucket, entry[K, V]{key: key, value: value})
	m.size++
}

// Get returns the value stored under key
func (m *HashMap[K, V]) Get(key K) (V, bool) {
	bucket := m.buckets[m.index(key)]
	for i := range bucket {
		if bucket[i].key == key {
			return bucket[i].value, true
		}
	}
	var zero V
	return zero, false
}

// GetPtr returns a pointer to the value stored under key.
// The pointer is invalidated by any later Insert or Remove on the map.
func (m *HashMap[K, V]) GetPtr(key K) (*V, bool) {
	bucket := m.buckets[m.index(key)]
	for i := range bucket {
		if bucket[i].key == key {
			return &bucket[i].value, true
		}
	}
	return nil, false
}

// Remove deletes key and returns its value.
// The bucket's last entry takes the removed slot, so bucket order is not kept.
func (m *HashMap[K, V]) Remove(key K) (V, bool) {
	idx := m.index(key)
	bucket := m.buckets[idx]
	for i := range bucket {
		if bucket[i].key != key {
			continue
		}
		value := bucket[i].value
		last := len(bucket) - 1
		bucket[i] = bucket[last]
		bucket[last] = entry[K, V]{}
		m.buckets[idx] = bucket[:last]
		m.size--
		return value, true
	}
	var zero V
	return zero, false
}

// ContainsKey reports whether key is present
func (m *HashMap[K, V]) ContainsKey(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the number of distinct keys
func (m *HashMap[K, V]) Len() int {
	return m.size
}

// IsEmpty reports whether the map has no entries
func (m *HashMap[K, V]) IsEmpty() bool {
	return m.size == 0
}

// Buckets returns the fixed bucket count
func (m *HashMap[K, V]) Buckets() int {
	return len(m.buckets)
}

// LoadFactor returns entries per bucket, the expected chain length.
func (m *HashMap[K, V]) LoadFactor() float64 {
	return float64(m.size) / float64(len(m.buckets))
}

// All yields every entry, bucket by bucket. Order is unspecified.
func (m *HashMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, bucket := range m.buckets {
			for _, e := range bucket {
				if !yield(e.key, e.value) {
					return
				}
			}
		}
	}
}

// Keys yields every key
func (m *HashMap[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range m.All() {
			if !yield(k) {
				return
			}
		}
	}
}

// Values yields every value
func (m *HashMap[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range m.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// ValuePointers yields a pointer to every stored value for in-place updates.
// The map must not be modified through Insert or Remove during the walk.
func (m *HashMap[K, V]) ValuePointers() iter.Seq[*V] {
	return func(yield func(*V) bool) {
		for _, bucket := range m.buckets {
			for i := range bucket {
				if !yield(&bucket[i].value) {
					return
				}
			}
		}
	}
}
