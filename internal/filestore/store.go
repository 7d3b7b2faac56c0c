// Package filestore is the degraded storage backend: one JSON file per
// digital object and one per relationship under a root directory.
//
// Mutations are serialised by a process-local mutex only. Two processes
// writing the same directory are not coordinated.
package filestore

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"

	"github.com/mesh-intelligence/dorepo/internal/atomicfile"
	"github.com/mesh-intelligence/dorepo/pkg/types"
)

var _ types.Backend = (*Store)(nil)

const (
	objectsDir       = "objects"
	relationshipsDir = "relationships"
	fileExt          = ".json"
)

// objectFile is the on-disk form of a digital object. Data is base64 in JSON.
type objectFile struct {
	Identifier string         `json:"doid"`
	Data       []byte         `json:"data"`
	Metadata   types.Metadata `json:"metadata"`
}

type relationshipFile struct {
	Identifier string         `json:"doid"`
	From       []string       `json:"from_ddo_doids"`
	To         []string       `json:"to_ddo_doids"`
	Metadata   types.Metadata `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Store implements types.Backend on a directory tree.
type Store struct {
	mu     sync.Mutex
	root   string
	closed bool
}

// Open prepares root for use, creating it and its subdirectories if needed.
func Open(root string) (*Store, error) {
	if root == "" {
		return nil, types.ErrStorageURLEmpty
	}
	for _, sub := range []string{objectsDir, relationshipsDir} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return nil, errors.Wrapf(err, "could not create %s directory under %s", sub, root)
		}
	}
	return &Store{root: root}, nil
}

// Root returns the directory the store writes to.
func (s *Store) Root() string { return s.root }

// Close marks the store closed. Later operations return ErrDetached.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) objectPath(id string) string {
	return filepath.Join(s.root, objectsDir, url.QueryEscape(id)+fileExt)
}

func (s *Store) relationshipPath(id string) string {
	return filepath.Join(s.root, relationshipsDir, url.QueryEscape(id)+fileExt)
}

// begin locks the store and checks it is usable. The caller must unlock.
func (s *Store) begin(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return types.ErrDetached
	}
	return nil
}

// InsertObject writes a new object file. An existing file for the same
// identifier yields ErrIntegrityConflict.
func (s *Store) InsertObject(ctx context.Context, rec types.ObjectRecord) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()

	data, err := json.Marshal(objectFile{Identifier: rec.Identifier, Data: rec.Data, Metadata: orEmpty(rec.Metadata)})
	if err != nil {
		return errors.Wrapf(err, "could not encode object %s", rec.Identifier)
	}
	if err := atomicfile.Create(s.objectPath(rec.Identifier), data); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return errors.Wrapf(types.ErrIntegrityConflict, "object %s", rec.Identifier)
		}
		return err
	}
	return nil
}

// LoadObject reads an object file. Returns ErrNotFound if absent.
func (s *Store) LoadObject(ctx context.Context, id string) (types.ObjectRecord, error) {
	if err := s.begin(ctx); err != nil {
		return types.ObjectRecord{}, err
	}
	defer s.mu.Unlock()

	var of objectFile
	if err := readJSON(s.objectPath(id), &of); err != nil {
		return types.ObjectRecord{}, err
	}
	return types.ObjectRecord{Identifier: id, Data: of.Data, Metadata: orEmpty(of.Metadata)}, nil
}

// UpdateObject replaces an existing object file. Returns ErrNotFound if the
// file does not exist.
func (s *Store) UpdateObject(ctx context.Context, rec types.ObjectRecord) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()

	path := s.objectPath(rec.Identifier)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return types.ErrNotFound
		}
		return errors.Wrapf(err, "could not stat %s", path)
	}
	data, err := json.Marshal(objectFile{Identifier: rec.Identifier, Data: rec.Data, Metadata: orEmpty(rec.Metadata)})
	if err != nil {
		return errors.Wrapf(err, "could not encode object %s", rec.Identifier)
	}
	return atomicfile.Replace(path, data)
}

// DeleteObject removes an object file. Returns ErrNotFound if absent.
func (s *Store) DeleteObject(ctx context.Context, id string) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()

	path := s.objectPath(id)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return types.ErrNotFound
		}
		return errors.Wrapf(err, "could not remove %s", path)
	}
	return nil
}

// ListObjects returns every stored identifier in ascending order.
func (s *Store) ListObjects(ctx context.Context) ([]string, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	ids := []string{}
	err := walkEntities(filepath.Join(s.root, objectsDir), func(path, id string) error {
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// InsertRelationship writes a new relationship file. An existing file for
// the same identifier yields ErrIntegrityConflict.
func (s *Store) InsertRelationship(ctx context.Context, rel *types.Relationship) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()

	data, err := json.Marshal(relationshipFile{
		Identifier: rel.Identifier(),
		From:       rel.Sources(),
		To:         rel.Targets(),
		Metadata:   rel.Metadata(),
		CreatedAt:  rel.CreatedAt().UTC(),
	})
	if err != nil {
		return errors.Wrapf(err, "could not encode relationship %s", rel.Identifier())
	}
	if err := atomicfile.Create(s.relationshipPath(rel.Identifier()), data); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return errors.Wrapf(types.ErrIntegrityConflict, "relationship %s", rel.Identifier())
		}
		return err
	}
	return nil
}

// LoadRelationship reads a relationship file. Returns ErrNotFound if absent.
func (s *Store) LoadRelationship(ctx context.Context, id string) (*types.Relationship, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	return readRelationship(s.relationshipPath(id))
}

// ListRelationships returns relationships matching filter ordered by creation
// time then identifier.
func (s *Store) ListRelationships(ctx context.Context, filter types.RelationshipFilter) ([]*types.Relationship, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	results := []*types.Relationship{}
	err := walkEntities(filepath.Join(s.root, relationshipsDir), func(path, _ string) error {
		rel, err := readRelationship(path)
		if err != nil {
			return err
		}
		if filter.Match(rel) {
			results = append(results, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if !a.CreatedAt().Equal(b.CreatedAt()) {
			return a.CreatedAt().Before(b.CreatedAt())
		}
		return a.Identifier() < b.Identifier()
	})
	return results, nil
}

func readRelationship(path string) (*types.Relationship, error) {
	var rf relationshipFile
	if err := readJSON(path, &rf); err != nil {
		return nil, err
	}
	return types.RestoreRelationship(rf.Identifier, rf.From, rf.To, rf.Metadata, rf.CreatedAt), nil
}

// readJSON decodes the file at path into v. A missing file is ErrNotFound.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.ErrNotFound
		}
		return errors.Wrapf(err, "could not read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "could not parse %s", path)
	}
	return nil
}

// walkEntities calls fn for every entity file directly under dir, passing
// the decoded identifier.
func walkEntities(dir string, fn func(path, id string) error) error {
	err := godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(ospath string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				if ospath == dir {
					return nil
				}
				return filepath.SkipDir
			}
			// Temporary files end in a random suffix, never fileExt.
			name := de.Name()
			if !strings.HasSuffix(name, fileExt) {
				return nil
			}
			id, err := url.QueryUnescape(strings.TrimSuffix(name, fileExt))
			if err != nil {
				return errors.Wrapf(err, "could not decode file name %s", name)
			}
			return fn(ospath, id)
		},
		Unsorted: true,
	})
	return errors.Wrapf(err, "error walking directory %s", dir)
}

func orEmpty(md types.Metadata) types.Metadata {
	if md == nil {
		return types.Metadata{}
	}
	return md
}
