package cmd

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/agentic-research/codemods/internal/codemod"
	"github.com/agentic-research/codemods/internal/journal"
	"github.com/agentic-research/codemods/internal/rules"
	"github.com/agentic-research/codemods/internal/runner"
)

type runFlags struct {
	dryRun  bool
	diff    bool
	format  string
	query   string
	jobs    int
	journal string
	exclude []string
}

func newRunCmd(o *options) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Apply a migration rule to Python files",
		Long: `Apply a migration rule to every Python file under the given paths.

Files are rewritten in place unless --dry-run is set. A file the rule
cannot convert faithfully is reported and left untouched.`,
	}
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&f.dryRun, "dry-run", "n", false, "Report changes without writing files")
	pf.BoolVar(&f.diff, "diff", false, "Print a unified diff of each change")
	pf.StringVar(&f.format, "format", "text", "Report format: text or json")
	pf.StringVar(&f.query, "query", "", "JSONPath selecting parts of the JSON report")
	pf.IntVarP(&f.jobs, "jobs", "j", 0, "Files transformed in parallel (default GOMAXPROCS)")
	pf.StringVar(&f.journal, "journal", "", "SQLite journal used to skip already migrated files")
	pf.StringSliceVar(&f.exclude, "exclude", nil, "Glob patterns of paths to skip")

	for _, spec := range rules.All() {
		cmd.AddCommand(newRuleCmd(o, f, spec))
	}
	return cmd
}

func flagName(param string) string {
	return strings.ReplaceAll(param, "_", "-")
}

func newRuleCmd(o *options, f *runFlags, spec rules.Spec) *cobra.Command {
	params := map[string]*string{}
	cmd := &cobra.Command{
		Use:   spec.Name + " [paths...]",
		Short: spec.Description,
		RunE: func(cmd *cobra.Command, args []string) error {
			ruleArgs, err := o.cfg.RuleArgs(spec.Name)
			if err != nil {
				return err
			}
			for name, v := range params {
				if cmd.Flags().Changed(flagName(name)) {
					ruleArgs[name] = *v
				}
			}
			rule, err := spec.Build(rules.Args(ruleArgs))
			if err != nil {
				return err
			}
			return f.run(cmd, o, rule, args)
		},
	}
	for _, p := range spec.Params {
		help := p.Help
		if p.Type == "list" {
			help += " (comma separated)"
		}
		if p.Required {
			help += " (required)"
		}
		params[p.Name] = cmd.Flags().String(flagName(p.Name), "", help)
	}
	return cmd
}

func (f *runFlags) run(cmd *cobra.Command, o *options, rule codemod.Rule, args []string) error {
	if f.format != "text" && f.format != "json" {
		return fmt.Errorf("unknown format %q", f.format)
	}
	fsys, paths, err := o.filesystem(args)
	if err != nil {
		return err
	}

	opts := runner.Options{
		Rule:    rule,
		Jobs:    o.cfg.Jobs,
		DryRun:  f.dryRun,
		Diff:    f.diff,
		Exclude: append(append([]string(nil), o.cfg.Exclude...), f.exclude...),
		Log:     o.log,
	}
	if cmd.Flags().Changed("jobs") {
		opts.Jobs = f.jobs
	}
	journalPath := o.cfg.Journal
	if cmd.Flags().Changed("journal") {
		journalPath = f.journal
	}
	if journalPath != "" {
		j, err := journal.Open(journalPath)
		if err != nil {
			return err
		}
		defer func() { _ = j.Close() }()
		opts.Journal = j
	}

	report, err := runner.Run(cmd.Context(), fsys, paths, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case f.query != "":
		results, err := report.Query(f.query)
		if err != nil {
			return err
		}
		for _, r := range results {
			if s, ok := r.(string); ok {
				fmt.Fprintln(out, s)
			} else {
				fmt.Fprintln(out, oj.JSON(r))
			}
		}
	case f.format == "json":
		fmt.Fprintln(out, report.JSON())
	default:
		if err := report.WriteText(out); err != nil {
			return err
		}
	}

	if err := report.Err(); err != nil {
		return fmt.Errorf("%d of %d files failed: %w", report.Count(runner.Failed), len(report.Results), err)
	}
	return nil
}
