// Package archive moves whole repositories in and out of JSONL files and
// bulk-imports directories of object files.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mesh-intelligence/dorepo/internal/codec"
	"github.com/mesh-intelligence/dorepo/pkg/types"
)

// File names inside an archive directory.
const (
	ObjectsFile       = "objects.jsonl"
	RelationshipsFile = "relationships.jsonl"
)

// maxLineBytes bounds a single JSONL record.
const maxLineBytes = 16 * 1024 * 1024

// Source is what Export reads from.
type Source interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, id string) (*types.DigitalObject, error)
	ListRelationships(ctx context.Context, filter types.RelationshipFilter) ([]*types.Relationship, error)
}

// Sink is what Restore and Import write to.
type Sink interface {
	Save(ctx context.Context, obj *types.DigitalObject) error
	InsertRelationship(ctx context.Context, rel *types.Relationship) error
}

// Stats counts what an export or restore touched.
type Stats struct {
	Objects       int
	Relationships int
	Skipped       int // malformed lines or records already present
}

// objectLine carries the payload in the tagged JSON codec form so bytes and
// integers survive a restore.
type objectLine struct {
	Identifier string          `json:"doid"`
	Data       json.RawMessage `json:"data"`
	Metadata   types.Metadata  `json:"metadata"`
}

type relationshipLine struct {
	Identifier string         `json:"doid"`
	From       []string       `json:"from_ddo_doids"`
	To         []string       `json:"to_ddo_doids"`
	Metadata   types.Metadata `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Archive reads and writes the JSONL files in one directory.
type Archive struct {
	dir    string
	logger *slog.Logger
	codec  types.Codec
}

// New returns an Archive rooted at dir. A nil logger means slog.Default().
func New(dir string, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{dir: dir, logger: logger, codec: codec.NewJSONCodec()}
}

// Dir returns the archive directory.
func (a *Archive) Dir() string { return a.dir }

// Export writes every object and relationship in src to the archive
// directory, replacing any previous export atomically per file.
func (a *Archive) Export(ctx context.Context, src Source) (Stats, error) {
	var stats Stats
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return stats, fmt.Errorf("creating archive directory: %w", err)
	}

	ids, err := src.List(ctx)
	if err != nil {
		return stats, fmt.Errorf("listing objects: %w", err)
	}
	objects := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		obj, err := src.Load(ctx, id)
		if err != nil {
			return stats, fmt.Errorf("loading %s: %w", id, err)
		}
		data, err := a.codec.Encode(obj.Data())
		if err != nil {
			return stats, fmt.Errorf("encoding %s: %w", id, err)
		}
		line, err := json.Marshal(objectLine{Identifier: id, Data: data, Metadata: obj.Metadata()})
		if err != nil {
			return stats, fmt.Errorf("encoding %s: %w", id, err)
		}
		objects = append(objects, line)
	}

	rels, err := src.ListRelationships(ctx, types.RelationshipFilter{})
	if err != nil {
		return stats, fmt.Errorf("listing relationships: %w", err)
	}
	relationships := make([]json.RawMessage, 0, len(rels))
	for _, rel := range rels {
		line, err := json.Marshal(relationshipLine{
			Identifier: rel.Identifier(),
			From:       rel.Sources(),
			To:         rel.Targets(),
			Metadata:   rel.Metadata(),
			CreatedAt:  rel.CreatedAt().UTC(),
		})
		if err != nil {
			return stats, fmt.Errorf("encoding relationship %s: %w", rel.Identifier(), err)
		}
		relationships = append(relationships, line)
	}

	if err := writeJSONL(filepath.Join(a.dir, ObjectsFile), objects); err != nil {
		return stats, err
	}
	if err := writeJSONL(filepath.Join(a.dir, RelationshipsFile), relationships); err != nil {
		return stats, err
	}
	stats.Objects = len(objects)
	stats.Relationships = len(relationships)
	a.logger.Info("export complete", "dir", a.dir, "objects", stats.Objects, "relationships", stats.Relationships)
	return stats, nil
}

// Restore replays an export into dst. Records whose identifier is already
// stored are skipped, so restoring twice is harmless. A missing
// relationships file is treated as empty.
func (a *Archive) Restore(ctx context.Context, dst Sink) (Stats, error) {
	var stats Stats

	objects, skipped, err := readJSONL(filepath.Join(a.dir, ObjectsFile))
	if err != nil {
		return stats, err
	}
	stats.Skipped += skipped
	for _, raw := range objects {
		line, data, err := a.decodeObject(raw)
		if err != nil {
			stats.Skipped++
			a.logger.Warn("skipping malformed object record", "error", err)
			continue
		}
		err = dst.Save(ctx, types.RestoreDigitalObject(line.Identifier, data, line.Metadata))
		switch {
		case errors.Is(err, types.ErrIntegrityConflict):
			stats.Skipped++
			continue
		case err != nil:
			return stats, fmt.Errorf("restoring %s: %w", line.Identifier, err)
		}
		stats.Objects++
	}

	relationships, skipped, err := readJSONL(filepath.Join(a.dir, RelationshipsFile))
	if errors.Is(err, os.ErrNotExist) {
		relationships, skipped, err = nil, 0, nil
	}
	if err != nil {
		return stats, err
	}
	stats.Skipped += skipped
	for _, raw := range relationships {
		var line relationshipLine
		if err := json.Unmarshal(raw, &line); err != nil || line.Identifier == "" {
			stats.Skipped++
			a.logger.Warn("skipping malformed relationship record", "error", err)
			continue
		}
		rel := types.RestoreRelationship(line.Identifier, line.From, line.To, line.Metadata, line.CreatedAt)
		err := dst.InsertRelationship(ctx, rel)
		switch {
		case errors.Is(err, types.ErrIntegrityConflict):
			stats.Skipped++
			continue
		case err != nil:
			return stats, fmt.Errorf("restoring relationship %s: %w", line.Identifier, err)
		}
		stats.Relationships++
	}

	a.logger.Info("restore complete", "dir", a.dir,
		"objects", stats.Objects, "relationships", stats.Relationships, "skipped", stats.Skipped)
	return stats, nil
}

func (a *Archive) decodeObject(raw json.RawMessage) (objectLine, any, error) {
	var line objectLine
	if err := json.Unmarshal(raw, &line); err != nil {
		return line, nil, err
	}
	if line.Identifier == "" {
		return line, nil, errors.New("missing doid")
	}
	if len(line.Data) == 0 {
		return line, nil, nil
	}
	data, err := a.codec.Decode(line.Data)
	if err != nil {
		return line, nil, fmt.Errorf("decoding data of %s: %w", line.Identifier, err)
	}
	return line, data, nil
}
