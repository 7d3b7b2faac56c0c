package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dorepo/pkg/types"
)

// operation describes one repository operation a gateway would expose.
type operation struct {
	Name     string `json:"name"`
	Command  string `json:"command"`
	Summary  string `json:"summary"`
	Statuses []int  `json:"statuses"`
}

var operations = []operation{
	{"create", "create", "store a new object under a fresh identifier",
		statuses(types.OutcomeOK, types.OutcomePrecondition, types.OutcomeConflict, types.OutcomeStorage)},
	{"retrieve", "get", "load an object by identifier",
		statuses(types.OutcomeOK, types.OutcomeNotFound, types.OutcomePrecondition, types.OutcomeStorage)},
	{"update", "update", "replace the payload and metadata of an object",
		statuses(types.OutcomeOK, types.OutcomeNotFound, types.OutcomePrecondition, types.OutcomeStorage)},
	{"delete", "delete", "remove an object",
		statuses(types.OutcomeOK, types.OutcomeNotFound, types.OutcomePrecondition, types.OutcomeStorage)},
	{"list", "list", "list object identifiers",
		statuses(types.OutcomeOK, types.OutcomeStorage)},
	{"resolve", "resolve", "resolve an identifier, nil when it does not resolve",
		statuses(types.OutcomeOK, types.OutcomeNotFound)},
	{"relate", "relate", "create a relationship between object sets",
		statuses(types.OutcomeOK, types.OutcomeConflict, types.OutcomeStorage)},
	{"relations", "relations", "list or show relationships",
		statuses(types.OutcomeOK, types.OutcomeNotFound, types.OutcomeStorage)},
}

func statuses(outcomes ...types.Outcome) []int {
	codes := make([]int, len(outcomes))
	for i, o := range outcomes {
		codes[i] = o.HTTPStatus()
	}
	return codes
}

func newOpsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List repository operations and the status codes each can produce",
		Args:  cobra.NoArgs,
		// Static output; no config needed.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.jsonOut {
				return printJSON(a.stdout, operations)
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "OPERATION\tCOMMAND\tSTATUSES\tSUMMARY")
			for _, op := range operations {
				fmt.Fprintf(tw, "%s\t%s\t%v\t%s\n", op.Name, op.Command, op.Statuses, op.Summary)
			}
			return tw.Flush()
		},
	}
}
