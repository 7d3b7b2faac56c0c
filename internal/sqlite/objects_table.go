package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/dorepo/pkg/types"
)

// InsertObject stores a new digital-object row. A duplicate identifier
// returns ErrIntegrityConflict.
func (b *Backend) InsertObject(ctx context.Context, rec types.ObjectRecord) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrDetached
	}

	metadataJSON, err := marshalMetadata(rec.Metadata)
	if err != nil {
		return err
	}

	return b.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO digital_objects (doid, data, metadata) VALUES (?, ?, ?)",
			rec.Identifier, rec.Data, metadataJSON,
		)
		if err != nil {
			return wrapExecError("inserting object", err)
		}
		return nil
	})
}

// LoadObject reads a digital-object row. Returns ErrNotFound if absent.
func (b *Backend) LoadObject(ctx context.Context, id string) (types.ObjectRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ObjectRecord{}, types.ErrDetached
	}

	var (
		data     []byte
		metadata sql.NullString
	)
	err := b.db.QueryRowContext(ctx,
		"SELECT data, metadata FROM digital_objects WHERE doid = ?", id,
	).Scan(&data, &metadata)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ObjectRecord{}, types.ErrNotFound
	}
	if err != nil {
		return types.ObjectRecord{}, fmt.Errorf("scanning object: %w", err)
	}

	md, err := unmarshalMetadata(metadata)
	if err != nil {
		return types.ObjectRecord{}, err
	}
	return types.ObjectRecord{Identifier: id, Data: data, Metadata: md}, nil
}

// UpdateObject replaces payload and metadata of an existing row. Zero rows
// affected returns ErrNotFound.
func (b *Backend) UpdateObject(ctx context.Context, rec types.ObjectRecord) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrDetached
	}

	metadataJSON, err := marshalMetadata(rec.Metadata)
	if err != nil {
		return err
	}

	return b.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE digital_objects SET data = ?, metadata = ? WHERE doid = ?",
			rec.Data, metadataJSON, rec.Identifier,
		)
		if err != nil {
			return wrapExecError("updating object", err)
		}
		return requireRows(res)
	})
}

// DeleteObject removes a row. Zero rows affected returns ErrNotFound.
func (b *Backend) DeleteObject(ctx context.Context, id string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrDetached
	}

	return b.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM digital_objects WHERE doid = ?", id)
		if err != nil {
			return wrapExecError("deleting object", err)
		}
		return requireRows(res)
	})
}

// ListObjects returns all identifiers in ascending order.
func (b *Backend) ListObjects(ctx context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}

	rows, err := b.db.QueryContext(ctx, "SELECT doid FROM digital_objects ORDER BY doid")
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning object id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating objects: %w", err)
	}
	return ids, nil
}

func requireRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

func marshalMetadata(md types.Metadata) (string, error) {
	if md == nil {
		md = types.Metadata{}
	}
	b, err := json.Marshal(md)
	if err != nil {
		return "", fmt.Errorf("marshaling metadata: %w", err)
	}
	return string(b), nil
}

func unmarshalMetadata(ns sql.NullString) (types.Metadata, error) {
	md := types.Metadata{}
	if !ns.Valid || ns.String == "" {
		return md, nil
	}
	if err := json.Unmarshal([]byte(ns.String), &md); err != nil {
		return nil, fmt.Errorf("parsing metadata: %w", err)
	}
	return md, nil
}
