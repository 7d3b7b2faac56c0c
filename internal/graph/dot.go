// Package graph renders stored relationships for inspection. It only reads;
// nothing here mutates a repository.
package graph

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mesh-intelligence/dorepo/pkg/types"
)

// shortHash is how many hash characters a shortened identifier keeps.
const shortHash = 8

// RenderDOT writes rels as a Graphviz digraph. Each relationship becomes a
// point node with edges in from its sources and out to its targets, so
// relationships with several sources or targets stay one unit. Output is
// deterministic for a given input order.
func RenderDOT(w io.Writer, rels []*types.Relationship) error {
	bw := bufio.NewWriter(w)

	nodes := map[string]struct{}{}
	for _, rel := range rels {
		for _, id := range rel.Sources() {
			nodes[id] = struct{}{}
		}
		for _, id := range rel.Targets() {
			nodes[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Fprintln(bw, "digraph relationships {")
	fmt.Fprintln(bw, "  rankdir=LR;")
	fmt.Fprintln(bw, "  node [shape=box];")
	for _, id := range ids {
		fmt.Fprintf(bw, "  %s [label=%s];\n", quote(id), quote(ShortID(id)))
	}
	for _, rel := range rels {
		hub := quote("rel:" + rel.Identifier())
		if kind := rel.Kind(); kind != "" {
			fmt.Fprintf(bw, "  %s [shape=point, xlabel=%s];\n", hub, quote(kind))
		} else {
			fmt.Fprintf(bw, "  %s [shape=point];\n", hub)
		}
		for _, id := range rel.Sources() {
			fmt.Fprintf(bw, "  %s -> %s [arrowhead=none];\n", quote(id), hub)
		}
		for _, id := range rel.Targets() {
			fmt.Fprintf(bw, "  %s -> %s;\n", hub, quote(id))
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

// ShortID abbreviates a generated "<millis>_<sha256>" identifier to its
// timestamp and the first hash characters. Other identifiers are returned
// unchanged.
func ShortID(id string) string {
	ts, hash, ok := strings.Cut(id, "_")
	if !ok || len(hash) <= shortHash || ts == "" {
		return id
	}
	return ts + "_" + hash[:shortHash]
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func quote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}
