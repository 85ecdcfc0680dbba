package storage

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltStore persists namespaced key/value pairs in a single bbolt file.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the bbolt database at path and provisions the
// well-known namespaces.
func OpenBolt(path string) (*BoltStore, error) {
	if path == "" {
		return nil, fmt.Errorf("storage: path must not be empty")
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, ns := range Namespaces() {
			if _, err := tx.CreateBucketIfNotExists([]byte(ns)); err != nil {
				return fmt.Errorf("create bucket %s: %w", ns, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: provision namespaces: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Get implements the Store interface.
func (s *BoltStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	if err := validateKey(namespace, key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(namespace))
		if bucket == nil {
			return nil
		}
		if raw := bucket.Get([]byte(key)); raw != nil {
			value = make([]byte, len(raw))
			copy(value, raw)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: get %s/%s: %w", namespace, key, err)
	}
	return value, nil
}

// Put implements the Store interface.
func (s *BoltStore) Put(ctx context.Context, namespace, key string, value []byte) error {
	if err := validateKey(namespace, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(namespace))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("storage: put %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Delete implements the Store interface.
func (s *BoltStore) Delete(ctx context.Context, namespace, key string) error {
	if err := validateKey(namespace, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(namespace))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("storage: delete %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Close releases the underlying database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
