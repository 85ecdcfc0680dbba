package storage

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()

	boltStore, err := OpenBolt(filepath.Join(t.TempDir(), "market.db"))
	if err != nil {
		t.Fatalf("OpenBolt returned error: %v", err)
	}
	t.Cleanup(func() { _ = boltStore.Close() })

	memStore := NewMemoryStore()
	t.Cleanup(func() { _ = memStore.Close() })

	return map[string]Store{
		"bolt":   boltStore,
		"memory": memStore,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Put(ctx, NamespaceCart, "default", []byte(`{"items":[]}`)); err != nil {
				t.Fatalf("Put returned error: %v", err)
			}

			got, err := store.Get(ctx, NamespaceCart, "default")
			if err != nil {
				t.Fatalf("Get returned error: %v", err)
			}
			if !bytes.Equal(got, []byte(`{"items":[]}`)) {
				t.Fatalf("unexpected value: %s", got)
			}
		})
	}
}

func TestStoreAbsentKeyReturnsNil(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			got, err := store.Get(ctx, NamespaceFilters, "missing")
			if err != nil {
				t.Fatalf("Get returned error: %v", err)
			}
			if got != nil {
				t.Fatalf("expected nil for absent key, got %q", got)
			}
		})
	}
}

func TestStoreDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Put(ctx, NamespaceTheme, "mode", []byte("dark")); err != nil {
				t.Fatalf("Put returned error: %v", err)
			}
			if err := store.Delete(ctx, NamespaceTheme, "mode"); err != nil {
				t.Fatalf("Delete returned error: %v", err)
			}
			if err := store.Delete(ctx, NamespaceTheme, "mode"); err != nil {
				t.Fatalf("second Delete returned error: %v", err)
			}

			got, err := store.Get(ctx, NamespaceTheme, "mode")
			if err != nil {
				t.Fatalf("Get returned error: %v", err)
			}
			if got != nil {
				t.Fatalf("expected deleted key to be absent, got %q", got)
			}
		})
	}
}

func TestStoreRejectsEmptyKeys(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Get(ctx, "", "key"); !errors.Is(err, ErrInvalidKey) {
				t.Fatalf("expected ErrInvalidKey, got %v", err)
			}
			if err := store.Put(ctx, NamespaceCart, "", nil); !errors.Is(err, ErrInvalidKey) {
				t.Fatalf("expected ErrInvalidKey, got %v", err)
			}
		})
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "market.db")

	store, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt returned error: %v", err)
	}
	if err := store.Put(ctx, NamespaceOrder, "last", []byte("#001234")); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, NamespaceOrder, "last")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(got) != "#001234" {
		t.Fatalf("unexpected persisted value: %q", got)
	}
}

func TestMemoryStoreClosedOperationsFail(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	if _, err := store.Get(ctx, NamespaceCart, "default"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := store.Put(ctx, NamespaceCart, "default", nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
