package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dorepo/pkg/irs"
	"github.com/mesh-intelligence/dorepo/pkg/types"
)

// objectFlags are shared by create and update.
type objectFlags struct {
	payload     payloadInput
	meta        []string
	kind        string
	description string
}

func (f *objectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.payload.file, "data-file", "", "read the payload from a file (- for stdin)")
	cmd.Flags().BoolVar(&f.payload.raw, "raw", false, "store the payload as a string even if it parses as JSON")
	cmd.Flags().StringArrayVarP(&f.meta, "meta", "m", nil, "metadata key=value (repeatable)")
	cmd.Flags().StringVar(&f.kind, "type", "", "metadata type")
	cmd.Flags().StringVar(&f.description, "description", "", "metadata description")
}

func (f *objectFlags) build(cmd *cobra.Command, args []string) (*types.DigitalObject, error) {
	data, err := f.payload.read(args, cmd.InOrStdin())
	if err != nil {
		return nil, userError("payload", err)
	}
	md, err := parseMetadata(f.meta, f.kind, f.description)
	if err != nil {
		return nil, userError("metadata", err)
	}
	return types.NewDigitalObject(data, md), nil
}

func newCreateCmd(a *app) *cobra.Command {
	var (
		flags objectFlags
		id    string
	)
	cmd := &cobra.Command{
		Use:   "create [payload]",
		Short: "Store a new digital object and print its identifier",
		Long: `Create wraps the payload in a digital object, assigns it an identifier
and saves it. The payload is decoded as JSON when it parses, otherwise it
is stored as a string.

Example:
  dorepo create '{"title":"report"}' --type document
  dorepo create --data-file notes.txt --raw
  dorepo create x --id T1`,
		Aliases: []string{"save"},
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := flags.build(cmd, args)
			if err != nil {
				return err
			}
			repo, err := a.repository()
			if err != nil {
				return err
			}
			if id != "" {
				obj = types.RestoreDigitalObject(id, obj.Data(), obj.Metadata())
			} else {
				svc, err := a.service()
				if err != nil {
					return err
				}
				if err := svc.Assign(obj); err != nil {
					return classify("assign identifier", err)
				}
			}

			if err := repo.Create(context.Background(), obj); err != nil {
				return classify("create", err)
			}
			if a.jsonOut {
				return printJSON(a.stdout, viewObject(obj))
			}
			fmt.Fprintln(a.stdout, obj.Identifier())
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&id, "id", "", "use this identifier instead of generating one")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "get <doid>",
		Short:   "Print a stored digital object",
		Aliases: []string{"load", "retrieve"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.repository()
			if err != nil {
				return err
			}
			obj, err := repo.Retrieve(context.Background(), args[0])
			if err != nil {
				return classify("get", err)
			}
			return printJSON(a.stdout, viewObject(obj))
		},
	}
}

func newResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <doid>",
		Short: "Resolve an identifier through the resolution service",
		Long: `Resolve looks the identifier up through the resolution service. Failures
are logged and reported as unresolvable rather than as storage errors.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			obj := svc.Resolve(context.Background(), args[0])
			if obj == nil {
				return userError("resolve", fmt.Errorf("%q did not resolve", args[0]))
			}
			return printJSON(a.stdout, viewObject(obj))
		},
	}
}

func newGenerateCmd(a *app) *cobra.Command {
	var payload payloadInput
	cmd := &cobra.Command{
		Use:   "generate [payload]",
		Short: "Print the identifier the resolution service would mint for a payload",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := payload.read(args, cmd.InOrStdin())
			if err != nil {
				return userError("payload", err)
			}
			id, err := irs.New(nil, irs.WithLogger(a.logger)).Generate(data)
			if err != nil {
				return userError("generate", err)
			}
			fmt.Fprintln(a.stdout, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&payload.file, "data-file", "", "read the payload from a file (- for stdin)")
	cmd.Flags().BoolVar(&payload.raw, "raw", false, "hash the payload as a string even if it parses as JSON")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var flags objectFlags
	cmd := &cobra.Command{
		Use:   "update <doid> [payload]",
		Short: "Replace the payload and metadata of a stored object",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			obj, err := flags.build(cmd, args[1:])
			if err != nil {
				return err
			}
			repo, err := a.repository()
			if err != nil {
				return err
			}
			if err := repo.Update(context.Background(), id, obj); err != nil {
				return classify("update", err)
			}
			if a.jsonOut {
				return printJSON(a.stdout, viewObject(types.RestoreDigitalObject(id, obj.Data(), obj.Metadata())))
			}
			fmt.Fprintln(a.stdout, "updated", id)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <doid>",
		Short: "Remove a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.repository()
			if err != nil {
				return err
			}
			if err := repo.Delete(context.Background(), args[0]); err != nil {
				return classify("delete", err)
			}
			fmt.Fprintln(a.stdout, "deleted", args[0])
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored object identifiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.repository()
			if err != nil {
				return err
			}
			ids, err := repo.List(context.Background())
			if err != nil {
				return classify("list", err)
			}
			if a.jsonOut {
				return printJSON(a.stdout, ids)
			}
			for _, id := range ids {
				fmt.Fprintln(a.stdout, id)
			}
			return nil
		},
	}
}
