package engine

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"latticecore/internal/infra/persistence/memory"
	"latticecore/internal/infra/persistence/postgres"
	pgtest "latticecore/internal/infra/persistence/postgres/testutil"
	"latticecore/internal/infra/persistence/sqlite"
)

func TestOpenStoreDefaultsToMemory(t *testing.T) {
	t.Setenv("LATTICECORE_STORAGE_DRIVER", "")
	store, err := OpenStore()
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected *memory.Store, got %T", store)
	}
}

func TestOpenStoreSQLitePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.db")
	t.Setenv("LATTICECORE_STORAGE_DRIVER", "sqlite")
	t.Setenv("LATTICECORE_SQLITE_PATH", path)

	store, err := OpenStore()
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	s, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected *sqlite.Store, got %T", store)
	}
	t.Cleanup(func() { _ = s.Close() })
	if s.Path() != path {
		t.Fatalf("store path = %q, want %q", s.Path(), path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
}

func TestOpenStorePostgres(t *testing.T) {
	db, conn := pgtest.NewStubDB()
	var gotDSN string
	restore := postgres.OverrideSQLOpen(func(_, dsn string) (*sql.DB, error) {
		gotDSN = dsn
		return db, nil
	})
	t.Cleanup(restore)
	t.Setenv("LATTICECORE_STORAGE_DRIVER", "postgres")
	t.Setenv("LATTICECORE_POSTGRES_DSN", "postgres://stub/latticecore")

	store, err := OpenStore()
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if _, ok := store.(*postgres.Store); !ok {
		t.Fatalf("expected *postgres.Store, got %T", store)
	}
	if gotDSN != "postgres://stub/latticecore" {
		t.Fatalf("DSN passed through as %q", gotDSN)
	}
	// Schema setup ran: two tables plus the cursor seed.
	if len(conn.Execs) != 3 {
		t.Fatalf("schema executed %d statements, want 3: %v", len(conn.Execs), conn.Execs)
	}
	if string(conn.Cursor) != "{}" {
		t.Fatalf("cursor seed = %q, want {}", conn.Cursor)
	}
}

func TestOpenStorePostgresPingFailure(t *testing.T) {
	db, conn := pgtest.NewStubDB()
	conn.FailPing = true
	restore := postgres.OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		return db, nil
	})
	t.Cleanup(restore)
	t.Setenv("LATTICECORE_STORAGE_DRIVER", "postgres")
	t.Setenv("LATTICECORE_POSTGRES_DSN", "postgres://unreachable")

	_, err := OpenStore()
	if err == nil {
		t.Fatalf("expected error from unreachable backend")
	}
	if !strings.Contains(err.Error(), "ping postgres") {
		t.Fatalf("unexpected error %q", err)
	}
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	t.Setenv("LATTICECORE_STORAGE_DRIVER", "gibberish")
	store, err := OpenStore()
	if err == nil || store != nil {
		t.Fatalf("expected error for unknown driver, got store=%v err=%v", store, err)
	}
	if !strings.Contains(err.Error(), "unknown storage driver gibberish") {
		t.Fatalf("unexpected error %q", err)
	}
}
