package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dorepo/pkg/dorepo"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the dorepo version",
		Args:  cobra.NoArgs,
		// Skip config loading.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(a.stdout, "dorepo", dorepo.Version)
		},
	}
}
