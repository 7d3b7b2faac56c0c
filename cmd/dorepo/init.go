package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the config file and the storage location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// setup already wrote a default config.yaml; opening the
			// repository creates the database or object directory.
			repo, err := a.repository()
			if err != nil {
				return err
			}
			loc := repo.Location()

			if a.jsonOut {
				return printJSON(a.stdout, map[string]string{
					"config":  a.cfgFile.Path(),
					"storage": loc.URL,
					"backend": loc.Kind.String(),
				})
			}
			fmt.Fprintln(a.stdout, "dorepo initialized")
			fmt.Fprintln(a.stdout, "  config: ", a.cfgFile.Path())
			fmt.Fprintln(a.stdout, "  storage:", loc.URL)
			fmt.Fprintln(a.stdout, "  backend:", loc.Kind)
			return nil
		},
	}
}
