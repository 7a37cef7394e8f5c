package postgres

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"dentalcore/pkg/domain"
)

// overrideWithSQLite routes the store's sql.Open through an embedded sqlite
// file. SQLite accepts the snapshot DDL and $n placeholders, which lets the
// persistence path run without a Postgres server.
func overrideWithSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-postgres.db")
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		return sql.Open("sqlite", path)
	})
	t.Cleanup(restore)
	return path
}

func TestStoreSnapshotReloadViaOverride(t *testing.T) {
	overrideWithSQLite(t)
	ctx := context.Background()

	store, err := NewStore("postgres://test", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	var patient domain.Patient
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var e error
		patient, e = tx.CreatePatient(domain.Patient{Name: "Jane Smith"})
		return e
	}); err != nil {
		t.Fatalf("create patient: %v", err)
	}

	reopened, err := NewStore("postgres://test", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	got := reopened.ListPatients()
	if len(got) != 1 || got[0].ID != patient.ID {
		t.Fatalf("expected snapshot reload, got %+v", got)
	}
}

func TestStoreOpenFailure(t *testing.T) {
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		return nil, os.ErrPermission
	})
	t.Cleanup(restore)

	if _, err := NewStore("", domain.NewRulesEngine()); !domain.IsStorageError(err) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestStoreAgainstRealServer(t *testing.T) {
	dsn := os.Getenv("DENTALCORE_POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skipf("DENTALCORE_POSTGRES_TEST_DSN not set")
	}
	store, err := NewStore(dsn, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreatePatient(domain.Patient{Name: "Integration"})
		return e
	}); err != nil {
		t.Fatalf("create patient: %v", err)
	}
}
