package storage

import (
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

// DefaultBucket is the bolt bucket snapshots are written to
const DefaultBucket = "snapshots"

// BoltStore keeps snapshots in a single bucket of a bolt database file.
// Each Put is its own read-write transaction.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
}

// NewBoltStore opens or creates the bolt file at path. It waits at most one
// second for the file lock held by another process.
func NewBoltStore(path string) (*BoltStore, error) {
	if path == "" {
		return nil, errors.New("bolt store needs a file path")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open bolt %s", path)
	}

	bucket := []byte(DefaultBucket)
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create bucket")
	}
	return &BoltStore{db: db, bucket: bucket}, nil
}

// Path returns the bolt file path
func (b *BoltStore) Path() string {
	return b.db.Path()
}

// Get returns a copy of the value stored under key
func (b *BoltStore) Get(key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(b.bucket).Get([]byte(key))
		if v == nil {
			return errors.Wrap(ErrKeyNotFound, key)
		}
		// v is only valid inside the transaction
		value = cloneBytes(v)
		return nil
	})
	return value, b.translate(err)
}

// Put stores value under key in its own transaction
func (b *BoltStore) Put(key string, value []byte) error {
	if key == "" {
		return ErrInvalidKey
	}
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).Put([]byte(key), value)
	})
	return b.translate(err)
}

// Delete removes key. Deleting a missing key is not an error.
func (b *BoltStore) Delete(key string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).Delete([]byte(key))
	})
	return b.translate(err)
}

// List returns every key in the bucket, in byte order
func (b *BoltStore) List() ([]string, error) {
	var keys []string
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, b.translate(err)
}

// Stats counts the keys in the bucket and their total value size
func (b *BoltStore) Stats() (StoreStats, error) {
	var stats StoreStats
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).ForEach(func(_, v []byte) error {
			stats.Keys++
			stats.Bytes += len(v)
			return nil
		})
	})
	return stats, b.translate(err)
}

// Close releases the bolt file lock
func (b *BoltStore) Close() error {
	return b.translate(b.db.Close())
}

// translate maps bolt errors onto the storage package errors
func (b *BoltStore) translate(err error) error {
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return ErrStoreClosed
	}
	return err
}
