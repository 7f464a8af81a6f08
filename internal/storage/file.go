package storage

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

const (
	fileSuffix = ".snap"
	tempPrefix = ".tmp-"
)

// FileStore keeps one file per key inside a directory.
//
// Put writes to a temporary file in the same directory, syncs it and renames
// it over the target, so a reader sees either the old value or the new one.
// Keys must be plain names: no path separators and no leading dot.
type FileStore struct {
	dir    string
	mu     sync.RWMutex
	closed bool
}

// NewFileStore opens dir, creating it if needed
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file store needs a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory backing the store
func (f *FileStore) Dir() string {
	return f.dir
}

func (f *FileStore) path(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, ".") || strings.ContainsAny(key, `/\`) {
		return "", errors.Wrapf(ErrInvalidKey, "%q", key)
	}
	return filepath.Join(f.dir, key+fileSuffix), nil
}

// Get returns the snapshot stored under key
func (f *FileStore) Get(key string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, ErrStoreClosed
	}
	p, err := f.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(ErrKeyNotFound, key)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", key)
	}
	return data, nil
}

// Put atomically replaces the value stored under key
func (f *FileStore) Put(key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrStoreClosed
	}
	p, err := f.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, tempPrefix+key+"-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", key)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "sync %s", key)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", key)
	}
	return errors.Wrapf(os.Rename(tmp.Name(), p), "rename %s", key)
}

// Delete removes key. Deleting a missing key is not an error.
func (f *FileStore) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrStoreClosed
	}
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrapf(err, "delete %s", key)
	}
	return nil
}

// List returns every stored key
func (f *FileStore) List() ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, ErrStoreClosed
	}
	var keys []string
	err := f.walk(func(key string, _ fs.FileInfo) {
		keys = append(keys, key)
	})
	return keys, err
}

// Stats counts the stored snapshot files and their total size
func (f *FileStore) Stats() (StoreStats, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return StoreStats{}, ErrStoreClosed
	}
	var stats StoreStats
	err := f.walk(func(_ string, info fs.FileInfo) {
		stats.Keys++
		stats.Bytes += int(info.Size())
	})
	return stats, err
}

// walk visits every committed snapshot file, skipping temp files
func (f *FileStore) walk(fn func(key string, info fs.FileInfo)) error {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return errors.Wrapf(err, "read %s", f.dir)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return errors.Wrapf(err, "stat %s", name)
		}
		fn(strings.TrimSuffix(name, fileSuffix), info)
	}
	return nil
}

// Close marks the store closed; later calls fail with ErrStoreClosed
func (f *FileStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return nil
}
