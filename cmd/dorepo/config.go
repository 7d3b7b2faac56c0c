package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dorepo/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings in config.yaml",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get [key]",
			Short: "Print one setting, or all of them",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				keys := config.Keys
				if len(args) == 1 {
					keys = args
				}
				values := make(map[string]string, len(keys))
				for _, k := range keys {
					v, err := a.cfgFile.Get(k)
					if err != nil {
						return userError("config get", err)
					}
					values[k] = v
				}
				if a.jsonOut {
					return printJSON(a.stdout, values)
				}
				if len(args) == 1 {
					fmt.Fprintln(a.stdout, values[args[0]])
					return nil
				}
				for _, k := range keys {
					fmt.Fprintf(a.stdout, "%s: %s\n", k, values[k])
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change a setting and rewrite config.yaml",
			Long: `Set validates and stores a setting. storage_url selects the backend used
by later commands:

  dorepo config set storage_url sqlite:///var/lib/dorepo/objects.db
  dorepo config set storage_url /var/lib/dorepo/objects   (degraded file mode)`,
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.cfgFile.Set(args[0], args[1]); err != nil {
					return userError("config set", err)
				}
				fmt.Fprintf(a.stdout, "%s: %s\n", args[0], args[1])
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(a.stdout, a.cfgFile.Path())
				return nil
			},
		},
	)
	return cmd
}
