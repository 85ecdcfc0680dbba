package storage

import (
	"context"
	"sync"
)

// MemoryStore provides an in-memory implementation useful for testing and local development.
type MemoryStore struct {
	mu     sync.RWMutex
	closed bool
	data   map[string]map[string][]byte
}

// NewMemoryStore constructs an empty memory-backed store with the well-known
// namespaces provisioned.
func NewMemoryStore() *MemoryStore {
	data := make(map[string]map[string][]byte)
	for _, ns := range Namespaces() {
		data[ns] = make(map[string][]byte)
	}
	return &MemoryStore{data: data}
}

// Get implements the Store interface.
func (s *MemoryStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	if err := validateKey(namespace, key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	bucket, ok := s.data[namespace]
	if !ok {
		return nil, nil
	}
	raw, ok := bucket[key]
	if !ok {
		return nil, nil
	}
	value := make([]byte, len(raw))
	copy(value, raw)
	return value, nil
}

// Put implements the Store interface.
func (s *MemoryStore) Put(ctx context.Context, namespace, key string, value []byte) error {
	if err := validateKey(namespace, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	bucket, ok := s.data[namespace]
	if !ok {
		bucket = make(map[string][]byte)
		s.data[namespace] = bucket
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	bucket[key] = stored
	return nil
}

// Delete implements the Store interface.
func (s *MemoryStore) Delete(ctx context.Context, namespace, key string) error {
	if err := validateKey(namespace, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if bucket, ok := s.data[namespace]; ok {
		delete(bucket, key)
	}
	return nil
}

// Close marks the store closed. Further operations return ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
