package types

import "context"

// ObjectRecord is the persisted shape of a digital object: identifier,
// encoded payload, and metadata.
type ObjectRecord struct {
	Identifier string
	Data       []byte
	Metadata   Metadata
}

// Backend is the storage engine behind a Repository. Implementations return
// ErrNotFound when zero rows match and ErrIntegrityConflict on a duplicate
// identifier; any other error is treated as a storage failure.
type Backend interface {
	InsertObject(ctx context.Context, rec ObjectRecord) error
	LoadObject(ctx context.Context, id string) (ObjectRecord, error)
	UpdateObject(ctx context.Context, rec ObjectRecord) error
	DeleteObject(ctx context.Context, id string) error
	// ListObjects returns every stored identifier in ascending order.
	ListObjects(ctx context.Context) ([]string, error)

	InsertRelationship(ctx context.Context, rel *Relationship) error
	LoadRelationship(ctx context.Context, id string) (*Relationship, error)
	// ListRelationships returns matching relationships ordered by creation
	// time, then identifier.
	ListRelationships(ctx context.Context, filter RelationshipFilter) ([]*Relationship, error)

	Close() error
}

// Codec turns payloads into bytes and back. Round trips must be lossless for
// the values the codec documents as supported.
type Codec interface {
	Name() string
	Encode(data any) ([]byte, error)
	Decode(b []byte) (any, error)
}
