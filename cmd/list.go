package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agentic-research/codemods/internal/rules"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available rules and their parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, spec := range rules.All() {
				fmt.Fprintf(w, "%s\t%s\n", spec.Name, spec.Description)
				for _, p := range spec.Params {
					req := ""
					if p.Required {
						req = ", required"
					}
					fmt.Fprintf(w, "  --%s\t%s (%s%s)\n", flagName(p.Name), p.Help, p.Type, req)
				}
			}
			return w.Flush()
		},
	}
}
