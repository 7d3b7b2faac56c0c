package repository

import (
	"context"

	"github.com/mesh-intelligence/dorepo/pkg/types"
)

// CreateRelationship builds a relationship and stores it in one step. A
// returned Relationship is always durable; on failure the Relationship is nil
// and the error carries the outcome (ErrIntegrityConflict or a
// *types.StorageError).
func (r *Repository) CreateRelationship(ctx context.Context, sources, targets []string, metadata types.Metadata) (*types.Relationship, error) {
	return r.createRelationship(ctx, types.NewRelationship(sources, targets, metadata))
}

// InsertRelationship stores a relationship built elsewhere, keeping its
// identifier and creation time. Restore uses it to replay an export.
func (r *Repository) InsertRelationship(ctx context.Context, rel *types.Relationship) error {
	_, err := r.createRelationship(ctx, rel)
	return err
}

func (r *Repository) createRelationship(ctx context.Context, rel *types.Relationship) (*types.Relationship, error) {
	if rel == nil {
		return nil, types.ErrNilObject
	}
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	if err := r.backend.InsertRelationship(ctx, rel); err != nil {
		return nil, r.fail("create relationship", rel.Identifier(), err)
	}
	r.logger.Debug("relationship created", "id", rel.Identifier(),
		"sources", len(rel.Sources()), "targets", len(rel.Targets()), "type", rel.Kind())
	return rel, nil
}

// LoadRelationship reads a stored relationship. Returns ErrNotFound if absent.
func (r *Repository) LoadRelationship(ctx context.Context, id string) (*types.Relationship, error) {
	if id == "" {
		return nil, types.ErrMissingIdentifier
	}
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	rel, err := r.backend.LoadRelationship(ctx, id)
	if err != nil {
		return nil, r.fail("load relationship", id, err)
	}
	return rel, nil
}

// ListRelationships returns stored relationships matching filter, oldest
// first.
func (r *Repository) ListRelationships(ctx context.Context, filter types.RelationshipFilter) ([]*types.Relationship, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	rels, err := r.backend.ListRelationships(ctx, filter)
	if err != nil {
		return nil, r.fail("list relationships", "", err)
	}
	return rels, nil
}
