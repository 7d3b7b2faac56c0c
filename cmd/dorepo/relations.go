package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dorepo/internal/graph"
	"github.com/mesh-intelligence/dorepo/pkg/types"
)

func newRelateCmd(a *app) *cobra.Command {
	var (
		from, to    []string
		meta        []string
		kind, descr string
	)
	cmd := &cobra.Command{
		Use:   "relate --from <doid,...> --to <doid,...>",
		Short: "Create a relationship between sets of objects",
		Long: `Relate stores a directed relationship from one set of identifiers to
another. Either set may be empty. The relationship is durable once its
identifier is printed.

Example:
  dorepo relate --from A --to B,C --type derives`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			md, err := parseMetadata(meta, kind, descr)
			if err != nil {
				return userError("metadata", err)
			}
			repo, err := a.repository()
			if err != nil {
				return err
			}
			rel, err := repo.CreateRelationship(context.Background(), splitIDs(from), splitIDs(to), md)
			if err != nil {
				return classify("relate", err)
			}
			if a.jsonOut {
				return printJSON(a.stdout, viewRelationship(rel))
			}
			fmt.Fprintln(a.stdout, rel.Identifier())
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&from, "from", nil, "source identifiers")
	cmd.Flags().StringSliceVar(&to, "to", nil, "target identifiers")
	cmd.Flags().StringArrayVarP(&meta, "meta", "m", nil, "metadata key=value (repeatable)")
	cmd.Flags().StringVar(&kind, "type", "", "relationship type")
	cmd.Flags().StringVar(&descr, "description", "", "relationship description")
	return cmd
}

func newRelationsCmd(a *app) *cobra.Command {
	var (
		filter types.RelationshipFilter
		format string
	)
	cmd := &cobra.Command{
		Use:   "relations [id]",
		Short: "Show stored relationships",
		Long: `Relations prints one relationship by identifier, or every relationship
matching the filters. --format dot renders a Graphviz digraph.

Example:
  dorepo relations --source A
  dorepo relations --format dot | dot -Tsvg > graph.svg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.repository()
			if err != nil {
				return err
			}
			ctx := context.Background()

			var rels []*types.Relationship
			if len(args) == 1 {
				rel, err := repo.LoadRelationship(ctx, args[0])
				if err != nil {
					return classify("relations", err)
				}
				rels = []*types.Relationship{rel}
			} else {
				rels, err = repo.ListRelationships(ctx, filter)
				if err != nil {
					return classify("relations", err)
				}
			}

			if a.jsonOut {
				format = "json"
			}
			switch format {
			case "dot":
				if err := graph.RenderDOT(a.stdout, rels); err != nil {
					return sysError("render", err)
				}
				return nil
			case "json":
				views := make([]relationshipView, 0, len(rels))
				for _, rel := range rels {
					views = append(views, viewRelationship(rel))
				}
				return printJSON(a.stdout, views)
			case "text", "":
				for _, rel := range rels {
					v := viewRelationship(rel)
					fmt.Fprintf(a.stdout, "%s\t%s -> %s\t%s\n", v.Identifier,
						strings.Join(shortIDs(v.Sources), ","), strings.Join(shortIDs(v.Targets), ","), rel.Kind())
				}
				return nil
			default:
				return userError("relations", fmt.Errorf("unknown format %q (valid: text, json, dot)", format))
			}
		},
	}
	cmd.Flags().StringVar(&filter.Source, "source", "", "only relationships with this source")
	cmd.Flags().StringVar(&filter.Target, "target", "", "only relationships with this target")
	cmd.Flags().StringVar(&filter.Kind, "type", "", "only relationships of this type")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json, dot")
	return cmd
}

func shortIDs(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = graph.ShortID(id)
	}
	return out
}
