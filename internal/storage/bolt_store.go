package storage

import (
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

const stubBucket = "stubs"

// boltStore implements a StubStore backed by BoltDB.
type boltStore struct {
	db *bolt.DB
}

// openBolt initializes a BoltDB-backed StubStore.
func openBolt(path string, opts Options) (StubStore, error) {
	dir := filepath.Dir(path)
	if !opts.ReadOnly && dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: opts.OpenTimeout, ReadOnly: opts.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if !opts.ReadOnly {
		if err := db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists([]byte(stubBucket))
			return err
		}); err != nil {
			db.Close()
			return nil, fmt.Errorf("init bucket: %w", err)
		}
	}

	return &boltStore{db: db}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Get returns a copy of the stub stored under name.
func (b *boltStore) Get(name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}

	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(stubBucket))
		if bucket == nil {
			return ErrNotFound
		}
		value := bucket.Get([]byte(name))
		if value == nil {
			return ErrNotFound
		}
		// bbolt values are only valid for the life of the transaction.
		out = append([]byte(nil), value...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Put stores data under name, replacing any previous value.
func (b *boltStore) Put(name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(stubBucket))
		if bucket == nil {
			return fmt.Errorf("stub bucket missing")
		}
		if data == nil {
			data = []byte{}
		}
		return bucket.Put([]byte(name), data)
	})
}

// Delete removes name. Deleting a missing stub is not an error.
func (b *boltStore) Delete(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(stubBucket))
		if bucket == nil {
			return fmt.Errorf("stub bucket missing")
		}
		return bucket.Delete([]byte(name))
	})
}

// List returns stored stub names in key order.
func (b *boltStore) List() ([]string, error) {
	var names []string
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(stubBucket))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}
