package engine

import (
	"fmt"
	"os"

	"latticecore/internal/infra/persistence/memory"
	"latticecore/internal/infra/persistence/postgres"
	"latticecore/internal/infra/persistence/sqlite"
	"latticecore/pkg/record"
)

// StorageDriver identifies a concrete storage backend.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenStore selects a backend using environment variables. Defaults to the
// in-memory store when unset.
//
//	LATTICECORE_STORAGE_DRIVER: memory|sqlite|postgres (default memory)
//	LATTICECORE_SQLITE_PATH: path to sqlite file (default ./latticecore.db)
//	LATTICECORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenStore() (record.Store, error) {
	driver := os.Getenv("LATTICECORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageMemory)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		return sqlite.NewStore(os.Getenv("LATTICECORE_SQLITE_PATH"))
	case StoragePostgres:
		return postgres.NewStore(os.Getenv("LATTICECORE_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
