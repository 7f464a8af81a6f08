package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns a fresh instance of every Store implementation
func backends(t *testing.T) map[string]func() Store {
	t.Helper()
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"file": func() Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "snapshots"))
			require.NoError(t, err)
			return s
		},
		"bolt": func() Store {
			s, err := NewBoltStore(filepath.Join(t.TempDir(), "medrec.db"))
			require.NoError(t, err)
			return s
		},
	}
}

// TestStoreContract runs the same behavior checks against every backend
func TestStoreContract(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("new store is empty", func(t *testing.T) {
				store := open()
				defer store.Close()

				keys, err := store.List()
				require.NoError(t, err)
				assert.Empty(t, keys)

				_, err = store.Get("nonexistent")
				assert.True(t, errors.Is(err, ErrKeyNotFound))
			})

			t.Run("put get overwrite delete", func(t *testing.T) {
				store := open()
				defer store.Close()

				require.NoError(t, store.Put("database", []byte("v1")))
				value, err := store.Get("database")
				require.NoError(t, err)
				assert.Equal(t, []byte("v1"), value)

				require.NoError(t, store.Put("database", []byte("version-two")))
				value, err = store.Get("database")
				require.NoError(t, err)
				assert.Equal(t, []byte("version-two"), value)

				require.NoError(t, store.Delete("database"))
				_, err = store.Get("database")
				assert.True(t, errors.Is(err, ErrKeyNotFound))

				assert.NoError(t, store.Delete("database"), "delete is idempotent")
			})

			t.Run("returned values are copies", func(t *testing.T) {
				store := open()
				defer store.Close()

				original := []byte("abc")
				require.NoError(t, store.Put("k", original))
				original[0] = 'X'

				value, err := store.Get("k")
				require.NoError(t, err)
				assert.Equal(t, []byte("abc"), value)

				value[1] = 'Y'
				again, _ := store.Get("k")
				assert.Equal(t, []byte("abc"), again)
			})

			t.Run("list and stats", func(t *testing.T) {
				store := open()
				defer store.Close()

				stats, err := store.Stats()
				require.NoError(t, err)
				assert.Equal(t, StoreStats{}, stats)

				data := map[string][]byte{
					"key1": []byte("value1"),   // 6 bytes
					"key2": []byte("value22"),  // 7 bytes
					"key3": []byte("value333"), // 8 bytes
				}
				for k, v := range data {
					require.NoError(t, store.Put(k, v))
				}

				keys, err := store.List()
				require.NoError(t, err)
				assert.ElementsMatch(t, []string{"key1", "key2", "key3"}, keys)

				stats, err = store.Stats()
				require.NoError(t, err)
				assert.Equal(t, StoreStats{Keys: 3, Bytes: 21}, stats)

				require.NoError(t, store.Delete("key2"))
				stats, err = store.Stats()
				require.NoError(t, err)
				assert.Equal(t, StoreStats{Keys: 2, Bytes: 14}, stats)
			})

			t.Run("closed store", func(t *testing.T) {
				store := open()
				require.NoError(t, store.Close())

				_, err := store.Get("k")
				assert.True(t, errors.Is(err, ErrStoreClosed), "get: %v", err)
				assert.True(t, errors.Is(store.Put("k", []byte("v")), ErrStoreClosed))
				_, err = store.List()
				assert.True(t, errors.Is(err, ErrStoreClosed))
			})
		})
	}
}

// TestMemoryStoreConcurrency tests thread-safe concurrent access
func TestMemoryStoreConcurrency(t *testing.T) {
	store := NewMemoryStore()

	numGoroutines := 50
	numOps := 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines * 2)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				key := fmt.Sprintf("goroutine-%d-key-%d", id, j)
				if err := store.Put(key, []byte(key)); err != nil {
					t.Errorf("put: %v", err)
				}
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				if _, err := store.Stats(); err != nil {
					t.Errorf("stats: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	keys, err := store.List()
	require.NoError(t, err)
	assert.Len(t, keys, numGoroutines*numOps)
}

// TestFileStore covers behavior specific to the directory backend
func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	defer store.Close()

	t.Run("no temp files left behind", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			require.NoError(t, store.Put("database", []byte(strings.Repeat("x", i*100))))
		}
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "database"+fileSuffix, entries[0].Name())
	})

	t.Run("stray files are ignored", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, tempPrefix+"database-123"), []byte("partial"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644))

		keys, err := store.List()
		require.NoError(t, err)
		assert.Equal(t, []string{"database"}, keys)
	})

	t.Run("invalid keys", func(t *testing.T) {
		for _, key := range []string{"", "../escape", "a/b", `a\b`, ".hidden"} {
			err := store.Put(key, []byte("v"))
			assert.True(t, errors.Is(err, ErrInvalidKey), "key %q: %v", key, err)
		}
	})

	t.Run("survives reopen", func(t *testing.T) {
		require.NoError(t, store.Put("persisted", []byte("yes")))

		reopened, err := NewFileStore(dir)
		require.NoError(t, err)
		value, err := reopened.Get("persisted")
		require.NoError(t, err)
		assert.Equal(t, []byte("yes"), value)
	})
}

// TestBoltStoreReopen verifies data outlives the process handle
func TestBoltStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medrec.db")

	store, err := NewBoltStore(path)
	require.NoError(t, err)
	assert.Equal(t, path, store.Path())
	require.NoError(t, store.Put("database", []byte("snapshot")))
	require.NoError(t, store.Close())

	store, err = NewBoltStore(path)
	require.NoError(t, err)
	defer store.Close()

	value, err := store.Get("database")
	require.NoError(t, err)
	assert.Equal(t, []byte("snapshot"), value)
}

// TestOpen verifies backend selection by name
func TestOpen(t *testing.T) {
	tests := []struct {
		backend string
		path    string
		wantErr error
	}{
		{backend: BackendMemory},
		{backend: BackendFile, path: filepath.Join(t.TempDir(), "snaps")},
		{backend: BackendBolt, path: filepath.Join(t.TempDir(), "medrec.db")},
		{backend: "rocksdb", wantErr: ErrUnknownBackend},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			store, err := Open(tt.backend, tt.path)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			require.NoError(t, store.Put("k", []byte("v")))
			assert.NoError(t, store.Close())
		})
	}

	t.Run("missing path", func(t *testing.T) {
		_, err := Open(BackendBolt, "")
		assert.Error(t, err)
		_, err = Open(BackendFile, "")
		assert.Error(t, err)
	})
}
