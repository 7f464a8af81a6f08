// Package storage persists database snapshots as opaque blobs under string
// keys, with pluggable backends behind a single Store interface.
//
// # Overview
//
// The database package serializes its whole state into one blob and hands it
// to a Store. The store neither parses nor versions the blob; it only has to
// give back exactly the bytes it was given.
//
//	┌─────────────────────────────────────┐
//	│         database.Database           │
//	│      (Commit / Load snapshot)       │
//	└─────────────────────────────────────┘
//	                 │
//	                 ▼
//	┌─────────────────────────────────────┐
//	│          Store interface            │
//	└─────────────────────────────────────┘
//	                 │
//	    ┌────────────┼────────────┐
//	    ▼            ▼            ▼
//	┌────────┐  ┌────────┐  ┌────────┐
//	│ Memory │  │  File  │  │  Bolt  │
//	│ Store  │  │ Store  │  │ Store  │
//	└────────┘  └────────┘  └────────┘
//
// # Backends
//
// MemoryStore: map guarded by sync.RWMutex
//   - No persistence, data is lost on Close
//   - Used by tests and throwaway sessions
//
// FileStore: one file per key in a directory
//   - Writes go to a temp file that is synced and renamed over the target
//   - A crash mid-write leaves the previous snapshot intact
//   - Keys are file names, so separators and leading dots are rejected
//
// BoltStore: one bucket ("snapshots") in a bolt database file
//   - Each Put is a read-write transaction
//   - The file lock keeps a second process out
//
// Open picks a backend by name ("memory", "file", "bolt") and logs open and
// close through logrus.
//
// # Errors
//
//   - ErrKeyNotFound: Get on a missing key
//   - ErrInvalidKey: key the backend cannot address
//   - ErrStoreClosed: any call after Close
//   - ErrUnknownBackend: Open with an unsupported name
//
// Errors are wrapped with github.com/pkg/errors; compare with errors.Is.
//
// # Usage
//
//	store, err := storage.Open("bolt", "/var/lib/medrec/medrec.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	if err := store.Put("database", blob); err != nil {
//	    return err
//	}
//	blob, err = store.Get("database")
//	if errors.Is(err, storage.ErrKeyNotFound) {
//	    // first run
//	}
//
// # Concurrency
//
// Every backend is safe for concurrent use. The database drives its store
// from a single goroutine, but Stats may be read from elsewhere.
package storage
