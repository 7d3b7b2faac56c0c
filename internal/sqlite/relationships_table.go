package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/dorepo/pkg/types"
)

const selectRelationship = "SELECT doid, from_ddo_doids, to_ddo_doids, metadata, created_at FROM relationships"

// InsertRelationship stores a relationship row. A duplicate identifier
// returns ErrIntegrityConflict.
func (b *Backend) InsertRelationship(ctx context.Context, rel *types.Relationship) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrDetached
	}

	from, err := json.Marshal(rel.Sources())
	if err != nil {
		return fmt.Errorf("marshaling sources: %w", err)
	}
	to, err := json.Marshal(rel.Targets())
	if err != nil {
		return fmt.Errorf("marshaling targets: %w", err)
	}
	metadataJSON, err := marshalMetadata(rel.Metadata())
	if err != nil {
		return err
	}

	return b.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO relationships (doid, from_ddo_doids, to_ddo_doids, metadata, created_at) VALUES (?, ?, ?, ?, ?)",
			rel.Identifier(), string(from), string(to), metadataJSON, rel.CreatedAt().UTC().Format(timeLayout),
		)
		if err != nil {
			return wrapExecError("inserting relationship", err)
		}
		return nil
	})
}

// LoadRelationship reads a relationship by identifier. Returns ErrNotFound if
// absent.
func (b *Backend) LoadRelationship(ctx context.Context, id string) (*types.Relationship, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}

	row := b.db.QueryRowContext(ctx, selectRelationship+" WHERE doid = ?", id)
	rel, err := hydrateRelationship(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting relationship %s: %w", id, err)
	}
	return rel, nil
}

// ListRelationships queries relationships matching the filter, ordered by
// created_at then doid.
func (b *Backend) ListRelationships(ctx context.Context, filter types.RelationshipFilter) ([]*types.Relationship, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}

	query := selectRelationship
	var conditions []string
	var args []any

	if filter.Source != "" {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM json_each(relationships.from_ddo_doids) WHERE json_each.value = ?)")
		args = append(args, filter.Source)
	}
	if filter.Target != "" {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM json_each(relationships.to_ddo_doids) WHERE json_each.value = ?)")
		args = append(args, filter.Target)
	}
	if filter.Kind != "" {
		conditions = append(conditions, "json_extract(metadata, '$.type') = ?")
		args = append(args, filter.Kind)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at, doid"

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching relationships: %w", err)
	}
	defer rows.Close()

	results := []*types.Relationship{}
	for rows.Next() {
		rel, err := hydrateRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating relationship: %w", err)
		}
		results = append(results, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relationships: %w", err)
	}
	return results, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// hydrateRelationship converts a row into a *types.Relationship.
func hydrateRelationship(row scanner) (*types.Relationship, error) {
	var (
		id, from, to, createdAt string
		metadata                sql.NullString
	)
	if err := row.Scan(&id, &from, &to, &metadata, &createdAt); err != nil {
		return nil, err
	}

	var sources, targets []string
	if err := json.Unmarshal([]byte(from), &sources); err != nil {
		return nil, fmt.Errorf("parsing from_ddo_doids: %w", err)
	}
	if err := json.Unmarshal([]byte(to), &targets); err != nil {
		return nil, fmt.Errorf("parsing to_ddo_doids: %w", err)
	}
	md, err := unmarshalMetadata(metadata)
	if err != nil {
		return nil, err
	}
	created, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return types.RestoreRelationship(id, sources, targets, md, created), nil
}
