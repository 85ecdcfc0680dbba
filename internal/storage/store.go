// Package storage provides the embedded key/value store that persists
// client-facing state such as carts, orders, and saved filter selections.
package storage

import (
	"context"
	"errors"
)

// Well-known namespaces. Stores create them eagerly so reads never fail on a
// missing bucket.
const (
	NamespaceCart    = "cart"
	NamespaceOrder   = "order"
	NamespaceFilters = "filters"
	NamespaceTheme   = "theme"
)

// ErrClosed is returned when an operation runs against a closed store.
var ErrClosed = errors.New("storage: store is closed")

// ErrInvalidKey is returned for empty namespaces or keys.
var ErrInvalidKey = errors.New("storage: namespace and key must not be empty")

// Store is a namespaced key/value store. Get returns (nil, nil) for absent
// keys; Delete on an absent key is a no-op.
type Store interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Put(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace, key string) error
	Close() error
}

// Namespaces lists every bucket a store must provision at startup.
func Namespaces() []string {
	return []string{NamespaceCart, NamespaceOrder, NamespaceFilters, NamespaceTheme}
}

func validateKey(namespace, key string) error {
	if namespace == "" || key == "" {
		return ErrInvalidKey
	}
	return nil
}
