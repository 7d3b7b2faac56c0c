package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dorepo/internal/archive"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write every object and relationship to JSONL files in dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.repository()
			if err != nil {
				return err
			}
			stats, err := archive.New(args[0], a.logger).Export(context.Background(), repo)
			if err != nil {
				return classify("export", err)
			}
			return a.printStats(stats)
		},
	}
}

func newRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <dir>",
		Short: "Load an export back into the repository, skipping identifiers already stored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.repository()
			if err != nil {
				return err
			}
			stats, err := archive.New(args[0], a.logger).Restore(context.Background(), repo)
			if err != nil {
				return classify("restore", err)
			}
			return a.printStats(stats)
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Create an object for every {data, metadata} JSON file under dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.repository()
			if err != nil {
				return err
			}
			svc, err := a.service()
			if err != nil {
				return err
			}
			imported, err := archive.Import(context.Background(), repo, svc, args[0], workers)
			if a.jsonOut {
				if perr := printJSON(a.stdout, imported); perr != nil {
					return perr
				}
			} else {
				for _, im := range imported {
					fmt.Fprintf(a.stdout, "%s\t%s\n", im.Identifier, im.Path)
				}
			}
			if err != nil {
				return classify("import", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", archive.DefaultWorkers, "concurrent saves")
	return cmd
}

func (a *app) printStats(stats archive.Stats) error {
	if a.jsonOut {
		return printJSON(a.stdout, map[string]int{
			"objects":       stats.Objects,
			"relationships": stats.Relationships,
			"skipped":       stats.Skipped,
		})
	}
	fmt.Fprintf(a.stdout, "objects: %d\nrelationships: %d\nskipped: %d\n",
		stats.Objects, stats.Relationships, stats.Skipped)
	return nil
}
