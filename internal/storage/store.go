package storage

import (
	"sync"

	"github.com/pkg/errors"
)

var (
	// ErrKeyNotFound is returned when a key doesn't exist in the store
	ErrKeyNotFound = errors.New("key not found")
	// ErrInvalidKey is returned for keys a backend cannot address
	ErrInvalidKey = errors.New("invalid key")
	// ErrStoreClosed is returned by operations on a closed store
	ErrStoreClosed = errors.New("store is closed")
)

// Store is a key-value blob store for database snapshots.
// All implementations must be safe for concurrent access.
type Store interface {
	// Get returns a copy of the value stored under key.
	// Returns ErrKeyNotFound if the key doesn't exist.
	Get(key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// List returns all keys in unspecified order
	List() ([]string, error)

	// Stats returns key and byte counts
	Stats() (StoreStats, error)

	// Close releases the backend. Further calls fail with ErrStoreClosed.
	Close() error
}

// StoreStats contains statistics about the store
type StoreStats struct {
	Keys  int // Number of keys
	Bytes int // Total size of all values in bytes
}

// MemoryStore keeps snapshots in process memory. Values are copied on the
// way in and out so callers can't alias stored bytes.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	value, ok := m.data[key]
	if !ok {
		return nil, errors.Wrap(ErrKeyNotFound, key)
	}
	return cloneBytes(value), nil
}

func (m *MemoryStore) Put(key string, value []byte) error {
	if key == "" {
		return ErrInvalidKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	m.data[key] = cloneBytes(value)
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}
	return keys, nil
}

func (m *MemoryStore) Stats() (StoreStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return StoreStats{}, ErrStoreClosed
	}
	stats := StoreStats{Keys: len(m.data)}
	for _, value := range m.data {
		stats.Bytes += len(value)
	}
	return stats, nil
}

// Close drops the stored data
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil
	return nil
}

func cloneBytes(v []byte) []byte {
	out := make([]byte, len(v))
	copy(out, v)
	return out
}
