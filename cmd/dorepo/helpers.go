package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mesh-intelligence/dorepo/pkg/types"
)

// objectView is the printed form of a digital object.
type objectView struct {
	Identifier string         `json:"doid"`
	Data       any            `json:"data"`
	Metadata   types.Metadata `json:"metadata"`
}

func viewObject(obj *types.DigitalObject) objectView {
	return objectView{Identifier: obj.Identifier(), Data: obj.Data(), Metadata: obj.Metadata()}
}

// relationshipView is the printed form of a relationship.
type relationshipView struct {
	Identifier string         `json:"id"`
	Sources    []string       `json:"sources"`
	Targets    []string       `json:"targets"`
	Metadata   types.Metadata `json:"metadata"`
	CreatedAt  string         `json:"created_at"`
}

func viewRelationship(rel *types.Relationship) relationshipView {
	return relationshipView{
		Identifier: rel.Identifier(),
		Sources:    rel.Sources(),
		Targets:    rel.Targets(),
		Metadata:   rel.Metadata(),
		CreatedAt:  rel.CreatedAt().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return sysError("marshal JSON", err)
	}
	return nil
}

// payloadInput names where a command reads its payload from.
type payloadInput struct {
	file string // --data-file, "-" for stdin
	raw  bool   // --raw: keep the argument as a string
}

// read returns the payload from the positional arg or --data-file. Text that
// parses as JSON becomes the decoded value unless --raw is set; anything
// else is kept as a string.
func (p payloadInput) read(args []string, stdin io.Reader) (any, error) {
	var text string
	switch {
	case p.file != "" && len(args) > 0:
		return nil, fmt.Errorf("give the payload as an argument or --data-file, not both")
	case p.file == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		text = string(b)
	case p.file != "":
		b, err := os.ReadFile(p.file)
		if err != nil {
			return nil, err
		}
		text = string(b)
	case len(args) > 0:
		text = args[0]
	default:
		return nil, fmt.Errorf("payload required")
	}

	if p.raw {
		return text, nil
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		return v, nil
	}
	return text, nil
}

// parseMetadata turns repeated key=value flags into Metadata. Values that
// parse as JSON keep their type.
func parseMetadata(pairs []string, kind, description string) (types.Metadata, error) {
	md := types.Metadata{}
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid metadata %q (want key=value)", pair)
		}
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			md[k] = decoded
		} else {
			md[k] = v
		}
	}
	if kind != "" {
		md[types.MetaKeyType] = kind
	}
	if description != "" {
		md[types.MetaKeyDescription] = description
	}
	return md, nil
}

// splitIDs splits comma-separated identifier lists, dropping blanks.
func splitIDs(values []string) []string {
	ids := []string{}
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
