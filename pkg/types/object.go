package types

import (
	"encoding/json"
	"fmt"
)

// reprLimit bounds the rendering of payload and metadata in String.
const reprLimit = 50

// IdentifierGenerator mints an identifier for a payload.
type IdentifierGenerator interface {
	Generate(data any) (string, error)
}

// DigitalObject wraps an application payload with metadata and an optional
// identifier. The payload and metadata are fixed at construction; the
// identifier is assigned at most once.
type DigitalObject struct {
	data       any
	metadata   Metadata
	identifier string
}

// NewDigitalObject returns an object with no identifier.
func NewDigitalObject(data any, metadata Metadata) *DigitalObject {
	return &DigitalObject{data: data, metadata: metadata.Clone()}
}

// RestoreDigitalObject returns an object that already carries id. Backends
// use it to rebuild stored objects; callers use it when the identifier was
// minted elsewhere.
func RestoreDigitalObject(id string, data any, metadata Metadata) *DigitalObject {
	return &DigitalObject{data: data, metadata: metadata.Clone(), identifier: id}
}

// Data returns the payload.
func (o *DigitalObject) Data() any { return o.data }

// Metadata returns a copy of the metadata.
func (o *DigitalObject) Metadata() Metadata { return o.metadata.Clone() }

// Identifier returns the identifier, or "" before assignment.
func (o *DigitalObject) Identifier() string { return o.identifier }

// HasIdentifier reports whether an identifier has been assigned.
func (o *DigitalObject) HasIdentifier() bool { return o.identifier != "" }

// AssignIdentifier asks g for an identifier and records it.
// Returns ErrAlreadyIdentified if the object already has one; the existing
// identifier is left untouched. Returns ErrEmptyIdentifier if g fails or
// yields nothing.
func (o *DigitalObject) AssignIdentifier(g IdentifierGenerator) error {
	if o.identifier != "" {
		return fmt.Errorf("%w: %s", ErrAlreadyIdentified, o.identifier)
	}
	id, err := g.Generate(o.data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmptyIdentifier, err)
	}
	if id == "" {
		return ErrEmptyIdentifier
	}
	o.identifier = id
	return nil
}

func (o *DigitalObject) String() string {
	return fmt.Sprintf("DigitalObject(data=%s, metadata=%s, identifier=%s)",
		truncate(fmt.Sprint(o.data)), truncate(jsonOrError(o.metadata)), o.identifier)
}

func jsonOrError(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<unprintable: %v>", err)
	}
	return string(b)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) > reprLimit {
		return string(r[:reprLimit]) + "..."
	}
	return s
}
