// Package repository is the sole arbiter of durable state for digital
// objects and relationships. A Repository selects its backend once, from the
// storage URL in its Config, and encodes payloads with a pluggable codec.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/dorepo/internal/codec"
	"github.com/mesh-intelligence/dorepo/internal/filestore"
	"github.com/mesh-intelligence/dorepo/internal/sqlite"
	"github.com/mesh-intelligence/dorepo/pkg/types"
)

// Repository stores and retrieves digital objects. It is safe for
// concurrent use; several Repositories may share one store.
type Repository struct {
	cfg     types.Config
	loc     types.Location
	backend types.Backend
	codec   types.Codec
	logger  *slog.Logger
}

// Option configures Open.
type Option func(*Repository)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) { r.logger = logger }
}

// WithCodec overrides the codec named in the Config.
func WithCodec(c types.Codec) Option {
	return func(r *Repository) { r.codec = c }
}

// WithBackend supplies a ready backend instead of opening one from the
// storage URL. The Repository takes ownership and closes it on Close.
func WithBackend(b types.Backend) Option {
	return func(r *Repository) { r.backend = b }
}

// Open validates cfg, resolves its storage URL and opens the backend.
func Open(cfg types.Config, opts ...Option) (*Repository, error) {
	r := &Repository{cfg: cfg.WithDefaults(), logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}

	if r.cfg.OpTimeout < 0 {
		return nil, types.ErrTimeoutInvalid
	}
	if r.codec == nil {
		c, err := codec.ByName(r.cfg.Codec)
		if err != nil {
			return nil, err
		}
		r.codec = c
	}
	if r.backend != nil {
		if r.cfg.StorageURL != "" {
			loc, err := types.ParseLocation(r.cfg.StorageURL)
			if err != nil {
				return nil, err
			}
			r.loc = loc
		}
		return r, nil
	}

	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := types.ParseLocation(r.cfg.StorageURL)
	if err != nil {
		return nil, err
	}
	r.loc = loc

	switch loc.Kind {
	case types.BackendRelational:
		b, err := sqlite.Open(loc.Path)
		if err != nil {
			return nil, &types.StorageError{Op: "open", ID: loc.URL, Err: err}
		}
		r.backend = b
	case types.BackendFile:
		r.logger.Warn("opening file-per-object store in degraded mode",
			"path", loc.Path, "transactions", false, "locking", "process-local")
		b, err := filestore.Open(loc.Path)
		if err != nil {
			return nil, &types.StorageError{Op: "open", ID: loc.URL, Err: err}
		}
		r.backend = b
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrBackendUnknown, loc.Kind)
	}

	r.logger.Debug("repository opened", "backend", loc.Kind.String(), "path", loc.Path, "codec", r.codec.Name())
	return r, nil
}

// Location returns the parsed storage location.
func (r *Repository) Location() types.Location { return r.loc }

// Codec returns the payload codec in use.
func (r *Repository) Codec() types.Codec { return r.codec }

// Close releases the backend.
func (r *Repository) Close() error {
	if err := r.backend.Close(); err != nil {
		return &types.StorageError{Op: "close", Err: err}
	}
	return nil
}

// Load reconstructs the object stored under id.
// Returns ErrNotFound if no object matches, or a *types.StorageError on
// connectivity, decode, or timeout failure.
func (r *Repository) Load(ctx context.Context, id string) (*types.DigitalObject, error) {
	if id == "" {
		return nil, types.ErrMissingIdentifier
	}
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	rec, err := r.backend.LoadObject(ctx, id)
	if err != nil {
		return nil, r.fail("load", id, err)
	}
	data, err := r.codec.Decode(rec.Data)
	if err != nil {
		return nil, r.fail("load", id, fmt.Errorf("decoding payload with %s codec: %w", r.codec.Name(), err))
	}
	r.logger.Debug("object loaded", "doid", id)
	return types.RestoreDigitalObject(id, data, rec.Metadata), nil
}

// Retrieve is an alias of Load.
func (r *Repository) Retrieve(ctx context.Context, id string) (*types.DigitalObject, error) {
	return r.Load(ctx, id)
}

// Save inserts obj under its identifier. An object without an identifier is
// rejected with ErrMissingIdentifier before storage is touched. A duplicate
// identifier returns ErrIntegrityConflict; the stored object is unchanged.
func (r *Repository) Save(ctx context.Context, obj *types.DigitalObject) error {
	if obj == nil {
		return types.ErrNilObject
	}
	if !obj.HasIdentifier() {
		return types.ErrMissingIdentifier
	}
	id := obj.Identifier()

	data, err := r.codec.Encode(obj.Data())
	if err != nil {
		return r.fail("save", id, fmt.Errorf("encoding payload with %s codec: %w", r.codec.Name(), err))
	}

	ctx, cancel := r.opContext(ctx)
	defer cancel()

	err = r.backend.InsertObject(ctx, types.ObjectRecord{Identifier: id, Data: data, Metadata: obj.Metadata()})
	if err != nil {
		return r.fail("save", id, err)
	}
	r.logger.Debug("object saved", "doid", id)
	return nil
}

// Create is an alias of Save.
func (r *Repository) Create(ctx context.Context, obj *types.DigitalObject) error {
	return r.Save(ctx, obj)
}

// Update replaces payload and metadata of the object stored under id with
// those of obj. The identifier carried by obj, if any, is ignored.
// Returns ErrNotFound if nothing is stored under id.
func (r *Repository) Update(ctx context.Context, id string, obj *types.DigitalObject) error {
	if id == "" {
		return types.ErrMissingIdentifier
	}
	if obj == nil {
		return types.ErrNilObject
	}

	data, err := r.codec.Encode(obj.Data())
	if err != nil {
		return r.fail("update", id, fmt.Errorf("encoding payload with %s codec: %w", r.codec.Name(), err))
	}

	ctx, cancel := r.opContext(ctx)
	defer cancel()

	err = r.backend.UpdateObject(ctx, types.ObjectRecord{Identifier: id, Data: data, Metadata: obj.Metadata()})
	if err != nil {
		return r.fail("update", id, err)
	}
	r.logger.Debug("object updated", "doid", id)
	return nil
}

// Delete removes the object stored under id. Returns ErrNotFound if nothing
// was removed.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrMissingIdentifier
	}
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	if err := r.backend.DeleteObject(ctx, id); err != nil {
		return r.fail("delete", id, err)
	}
	r.logger.Debug("object deleted", "doid", id)
	return nil
}

// List returns every stored identifier in ascending order.
func (r *Repository) List(ctx context.Context) ([]string, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	ids, err := r.backend.ListObjects(ctx)
	if err != nil {
		return nil, r.fail("list", "", err)
	}
	return ids, nil
}

// opContext bounds ctx by the configured operation timeout.
func (r *Repository) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.OpTimeout > 0 {
		return context.WithTimeout(ctx, r.cfg.OpTimeout)
	}
	return context.WithCancel(ctx)
}

// fail logs err and returns it in the repository's error taxonomy:
// not-found, conflict and precondition sentinels pass through, anything else
// becomes a *types.StorageError.
func (r *Repository) fail(op, id string, err error) error {
	switch {
	case errors.Is(err, types.ErrNotFound):
		r.logger.Warn(op+": no rows matched", "doid", id)
		return fmt.Errorf("%s %s: %w", op, id, types.ErrNotFound)
	case errors.Is(err, types.ErrIntegrityConflict):
		r.logger.Warn(op+": identifier already stored", "doid", id)
		return fmt.Errorf("%s %s: %w", op, id, types.ErrIntegrityConflict)
	case errors.Is(err, types.ErrPrecondition):
		return err
	}
	r.logger.Error(op+" failed", "doid", id, "error", err)
	return &types.StorageError{Op: op, ID: id, Err: err}
}
