// Package sqlite persists the in-memory document state to a single SQLite
// table as JSON blobs. It snapshots the full document after every successful
// transaction.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"dentalcore/internal/infra/persistence/memory"
	"dentalcore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

// Store layers durable SQLite snapshots over the in-memory transactional store.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore constructs a snapshotting SQLite-backed persistent store and
// hydrates it from any existing snapshot.
func NewStore(path string, engine *domain.RulesEngine) (*Store, error) {
	if path == "" {
		path = "dentalcore.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, domain.StorageError{Op: "create dirs", Err: err}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, domain.StorageError{Op: "open sqlite", Err: err}
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, domain.StorageError{Op: "create state table", Err: err}
	}
	s := &Store{Store: memory.NewStore(engine), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

var sqliteBuckets = []string{"users", "patients", "incidents"}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return domain.StorageError{Op: "select state", Err: err}
	}
	defer func() { _ = rows.Close() }()
	type raw struct {
		bucket  string
		payload []byte
	}
	var raws []raw
	for rows.Next() {
		var r raw
		if err := rows.Scan(&r.bucket, &r.payload); err != nil {
			return domain.StorageError{Op: "scan state", Err: err}
		}
		raws = append(raws, r)
	}
	if err := rows.Err(); err != nil {
		return domain.StorageError{Op: "iterate state", Err: err}
	}
	if len(raws) == 0 {
		return nil
	}
	doc := domain.Document{}
	for _, r := range raws {
		switch r.bucket {
		case "users":
			if err := json.Unmarshal(r.payload, &doc.Users); err != nil {
				return domain.StorageError{Op: "decode users", Err: err}
			}
		case "patients":
			if err := json.Unmarshal(r.payload, &doc.Patients); err != nil {
				return domain.StorageError{Op: "decode patients", Err: err}
			}
		case "incidents":
			if err := json.Unmarshal(r.payload, &doc.Incidents); err != nil {
				return domain.StorageError{Op: "decode incidents", Err: err}
			}
		}
	}
	s.ImportDocument(doc)
	return nil
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.ExportDocument()
	tx, err := s.db.Begin()
	if err != nil {
		return domain.StorageError{Op: "begin tx", Err: err}
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range sqliteBuckets {
		var data []byte
		switch bucket {
		case "users":
			data, err = json.Marshal(doc.Users)
		case "patients":
			data, err = json.Marshal(doc.Patients)
		case "incidents":
			data, err = json.Marshal(doc.Incidents)
		}
		if err != nil {
			retErr = domain.StorageError{Op: fmt.Sprintf("encode %s", bucket), Err: err}
			return retErr
		}
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = domain.StorageError{Op: fmt.Sprintf("upsert %s", bucket), Err: err}
			return retErr
		}
	}
	if err = tx.Commit(); err != nil {
		return domain.StorageError{Op: "commit", Err: err}
	}
	return nil
}

// RunInTransaction applies fn within a transaction, then snapshots the
// document to SQLite if successful.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(); pErr != nil {
		return res, pErr
	}
	return res, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
