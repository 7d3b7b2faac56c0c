package sqlite

import (
	"errors"
	"fmt"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/dorepo/pkg/types"
)

// isConstraintError reports whether err is a primary-key or unique violation.
func isConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// isBusyError reports whether err is a lock-contention failure.
func isBusyError(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}

// wrapExecError maps driver failures from an INSERT/UPDATE/DELETE onto the
// types sentinels where one applies.
func wrapExecError(what string, err error) error {
	switch {
	case isConstraintError(err):
		return fmt.Errorf("%s: %w", what, types.ErrIntegrityConflict)
	case isBusyError(err):
		return fmt.Errorf("%s: database is locked: %w", what, err)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
