package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Relationship is a directed link from a set of source identifiers to a set
// of target identifiers. A Relationship has no update operation; it is made
// durable by Repository.CreateRelationship.
type Relationship struct {
	identifier string
	sources    []string
	targets    []string
	metadata   Metadata
	createdAt  time.Time
}

// NewRelationship builds an unsaved relationship with a fresh UUID v7
// identifier. Empty source or target sets are legal.
func NewRelationship(sources, targets []string, metadata Metadata) *Relationship {
	return &Relationship{
		identifier: newRelationshipID(),
		sources:    copyIDs(sources),
		targets:    copyIDs(targets),
		metadata:   metadata.Clone(),
		createdAt:  time.Now().UTC(),
	}
}

// RestoreRelationship rebuilds a stored relationship.
func RestoreRelationship(id string, sources, targets []string, metadata Metadata, createdAt time.Time) *Relationship {
	return &Relationship{
		identifier: id,
		sources:    copyIDs(sources),
		targets:    copyIDs(targets),
		metadata:   metadata.Clone(),
		createdAt:  createdAt,
	}
}

func (r *Relationship) Identifier() string   { return r.identifier }
func (r *Relationship) Sources() []string    { return copyIDs(r.sources) }
func (r *Relationship) Targets() []string    { return copyIDs(r.targets) }
func (r *Relationship) Metadata() Metadata   { return r.metadata.Clone() }
func (r *Relationship) CreatedAt() time.Time { return r.createdAt }

// Kind returns the conventional "type" metadata value.
func (r *Relationship) Kind() string { return r.metadata.String(MetaKeyType) }

// Description returns the conventional "description" metadata value.
func (r *Relationship) Description() string { return r.metadata.String(MetaKeyDescription) }

func (r *Relationship) String() string {
	return fmt.Sprintf("Relationship(sources=%v, targets=%v, metadata=%s)",
		r.sources, r.targets, jsonOrError(r.metadata))
}

// RelationshipFilter narrows ListRelationships. Zero fields match everything.
type RelationshipFilter struct {
	Source string // relationship lists this identifier among its sources
	Target string // relationship lists this identifier among its targets
	Kind   string // metadata "type"
}

// Match reports whether r satisfies the filter.
func (f RelationshipFilter) Match(r *Relationship) bool {
	if f.Kind != "" && r.Kind() != f.Kind {
		return false
	}
	if f.Source != "" && !contains(r.sources, f.Source) {
		return false
	}
	if f.Target != "" && !contains(r.targets, f.Target) {
		return false
	}
	return true
}

// newRelationshipID generates a UUID v7, falling back to v4.
func newRelationshipID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

func copyIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
