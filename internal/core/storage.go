package core

import (
	"fmt"
	"os"

	"dentalcore/internal/infra/persistence/memory"
	"dentalcore/internal/infra/persistence/postgres"
	"dentalcore/internal/infra/persistence/sqlite"
	"dentalcore/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

type (
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore

	// MemoryStore aliases the in-memory implementation for convenience.
	MemoryStore = memory.Store
)

// NewMemoryStore constructs an in-memory store with the supplied rules engine.
func NewMemoryStore(engine *RulesEngine) *MemoryStore {
	return memory.NewStore(engine)
}

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	DENTALCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	DENTALCORE_SQLITE_PATH: path to sqlite file (default ./dentalcore.db)
//	DENTALCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(engine *RulesEngine) (PersistentStore, error) {
	driver := os.Getenv("DENTALCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		path := os.Getenv("DENTALCORE_SQLITE_PATH")
		return sqlite.NewStore(path, engine)
	case StoragePostgres:
		dsn := os.Getenv("DENTALCORE_POSTGRES_DSN")
		return postgres.NewStore(dsn, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
