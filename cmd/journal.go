package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentic-research/codemods/internal/journal"
)

func newJournalCmd(o *options) *cobra.Command {
	var (
		path   string
		forget string
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List or clear the migration journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("journal") {
				path = o.cfg.Journal
			}
			if path == "" {
				return fmt.Errorf("no journal configured; pass --journal")
			}
			j, err := journal.Open(path)
			if err != nil {
				return err
			}
			defer func() { _ = j.Close() }()

			ctx := cmd.Context()
			if forget != "" || all {
				return j.Forget(ctx, forget)
			}
			entries, err := j.Entries(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.Rule, e.Path, e.MigratedAt.UTC().Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&path, "journal", "", "SQLite journal path")
	cmd.Flags().StringVar(&forget, "forget", "", "Drop the entries recorded for this rule")
	cmd.Flags().BoolVar(&all, "forget-all", false, "Drop every entry")
	cmd.MarkFlagsMutuallyExclusive("forget", "forget-all")
	return cmd
}
