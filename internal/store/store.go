// Package store provides the key-value persistence layer shared by all
// record managers. Records live as JSON blobs under fixed string keys in
// one of two namespaces: a small settings namespace intended for data that
// syncs across devices, and a bulk namespace for record collections with a
// hard serialized-size ceiling per key.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Namespace selects which logical store a key lives in.
type Namespace int

const (
	// Sync holds small user preferences (single settings blob).
	Sync Namespace = iota
	// Local holds bulk record collections (templates, profiles,
	// signatures, verse cache). Writes are quota-checked.
	Local
)

// MaxLocalBytes is the serialized-size ceiling for a single key in the
// Local namespace. Matches the 5 MB limit of the storage backend the
// extension data model was designed around.
const MaxLocalBytes = 5 * 1024 * 1024

// ErrQuotaExceeded is returned when a Local write would exceed
// MaxLocalBytes. Callers surface this distinctly from generic store
// failures so the UI can suggest deleting records.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

var (
	bucketSync  = []byte("sync")
	bucketLocal = []byte("local")
)

// Store is a namespaced JSON blob store backed by BoltDB.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the store at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketSync, bucketLocal} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func bucketFor(ns Namespace) []byte {
	if ns == Sync {
		return bucketSync
	}
	return bucketLocal
}

// Get returns the blob stored under key, or nil if the key is absent.
// An absent key is not an error.
func (s *Store) Get(ns Namespace, key string) ([]byte, error) {
	var data []byte

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketFor(ns)).Get([]byte(key))
		if v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	return data, err
}

// Put stores the blob under key. Writes to the Local namespace are
// refused with ErrQuotaExceeded before touching the database when the
// blob exceeds MaxLocalBytes.
func (s *Store) Put(ns Namespace, key string, data []byte) error {
	if ns == Local && len(data) > MaxLocalBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d byte limit", ErrQuotaExceeded, len(data), MaxLocalBytes)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFor(ns)).Put([]byte(key), data)
	})
}

// Delete removes key from the namespace. Deleting an absent key is a
// no-op.
func (s *Store) Delete(ns Namespace, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFor(ns)).Delete([]byte(key))
	})
}

// Usage reports the total stored bytes and key count in a namespace.
func (s *Store) Usage(ns Namespace) (bytes int, keys int, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketFor(ns)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			bytes += len(v)
			keys++
		}
		return nil
	})
	return bytes, keys, err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
