package cmd

import (
	"fmt"
	"sort"

	"github.com/go-git/go-billy/v5/util"
	"github.com/spf13/cobra"

	"github.com/agentic-research/codemods/internal/cst"
	"github.com/agentic-research/codemods/internal/linter"
	"github.com/agentic-research/codemods/internal/runner"
)

func newCheckCmd(o *options) *cobra.Command {
	var (
		summary bool
		exclude []string
	)
	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Report legacy API references left in Python files",
		Long: `Report every decorator, call and import of a legacy API, with the rule
that migrates it. Files that do not parse are listed with every syntax
error instead. Exits non-zero when any reference or syntax error remains.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, paths, err := o.filesystem(args)
			if err != nil {
				return err
			}
			files, err := runner.Discover(fsys, paths, append(append([]string(nil), o.cfg.Exclude...), exclude...))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var (
				all    []linter.Diagnostic
				broken int
			)
			for _, name := range files {
				src, err := util.ReadFile(fsys, name)
				if err != nil {
					return fmt.Errorf("read %s: %w", name, err)
				}
				f, err := cst.Parse(cmd.Context(), name, src)
				if err != nil {
					return err
				}
				// Query matches inside a broken tree are unreliable.
				if errs := f.Errors(); len(errs) > 0 {
					for _, e := range errs {
						fmt.Fprintln(out, e.Error())
					}
					broken++
					continue
				}
				diags := linter.LintFile(f)
				if !summary {
					for _, d := range diags {
						fmt.Fprintln(out, d.String())
					}
				}
				all = append(all, diags...)
			}

			counts := linter.Counts(all)
			ruleNames := make([]string, 0, len(counts))
			for r := range counts {
				ruleNames = append(ruleNames, r)
			}
			sort.Strings(ruleNames)
			for _, r := range ruleNames {
				fmt.Fprintf(out, "%s: %d\n", r, counts[r])
			}
			switch {
			case broken > 0:
				return fmt.Errorf("%d of %d files have syntax errors", broken, len(files))
			case len(all) > 0:
				return fmt.Errorf("%d legacy references in %d files checked", len(all), len(files))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&summary, "summary", false, "Print only the per-rule counts")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Glob patterns of paths to skip")
	return cmd
}
