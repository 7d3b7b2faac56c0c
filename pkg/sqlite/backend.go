// Package sqlite exposes the SQLite storage backend to callers that build a
// repository.Repository around their own backend value, for example to share
// one attached database between several repositories.
package sqlite

import (
	"github.com/mesh-intelligence/dorepo/internal/sqlite"
	"github.com/mesh-intelligence/dorepo/pkg/types"
)

// Open attaches a SQLite backend to the database file at path, creating the
// file, its parent directories and the schema as needed.
//
// Example:
//
//	backend, err := sqlite.Open("/var/lib/dorepo/objects.db")
//	if err != nil {
//	    return err
//	}
//	repo, err := repository.Open(types.Config{}, repository.WithBackend(backend))
//	defer repo.Close()
func Open(path string) (types.Backend, error) {
	b, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	return b, nil
}
