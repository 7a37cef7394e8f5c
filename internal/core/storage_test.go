package core

import (
	"context"
	"path/filepath"
	"testing"

	"dentalcore/internal/infra/persistence/sqlite"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	t.Setenv("DENTALCORE_STORAGE_DRIVER", string(StorageMemory))
	store, err := OpenPersistentStore(NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestOpenPersistentStoreSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clinic.db")
	t.Setenv("DENTALCORE_STORAGE_DRIVER", string(StorageSQLite))
	t.Setenv("DENTALCORE_SQLITE_PATH", path)

	store, err := OpenPersistentStore(NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	sqliteStore, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
	if sqliteStore.Path() != path {
		t.Fatalf("unexpected path: %s", sqliteStore.Path())
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, e := tx.CreatePatient(Patient{Name: "John Doe"})
		return e
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	t.Setenv("DENTALCORE_STORAGE_DRIVER", "dbase")
	if _, err := OpenPersistentStore(NewDefaultRulesEngine()); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
