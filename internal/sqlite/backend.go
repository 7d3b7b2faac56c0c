// Package sqlite implements the relational storage backend for digital
// objects and relationships on top of modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mesh-intelligence/dorepo/pkg/types"
)

var _ types.Backend = (*Backend)(nil)

// pragmas are applied to every pooled connection through the DSN.
const pragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"

// Backend implements types.Backend using a SQLite database file.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	path     string
	db       *sql.DB
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a database path to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Open creates a backend and attaches it to the database at path.
func Open(path string) (*Backend, error) {
	b := NewBackend()
	if err := b.Attach(path); err != nil {
		return nil, err
	}
	return b, nil
}

// Attach opens the database at path, creating the file and its parent
// directory if needed, and applies the schema.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if path == "" {
		return types.ErrStorageURLEmpty
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?"+pragmas)
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping sqlite db: %w", err)
	}

	// SQLite allows one writer; a single pooled connection avoids SQLITE_BUSY
	// between our own transactions.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return fmt.Errorf("apply schema: %w", err)
	}

	b.db = db
	b.path = path
	b.attached = true
	return nil
}

// Detach releases the database handle. Detach is idempotent. After Detach,
// all operations return ErrDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	if b.db != nil {
		err := b.db.Close()
		b.db = nil
		return err
	}
	return nil
}

// Close implements types.Backend.
func (b *Backend) Close() error {
	return b.Detach()
}

// Path returns the database file path.
func (b *Backend) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}

// withTx runs fn inside a transaction that is committed when fn returns nil
// and rolled back otherwise. The caller must hold b.mu.
func (b *Backend) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// applySchema creates tables and indexes if they don't exist and records the
// schema version.
func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	if version < schemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}
