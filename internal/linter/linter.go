// Package linter reports references to legacy APIs that remain in a file
// after (or before) migration.
package linter

import (
	"context"
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/agentic-research/codemods/internal/cst"
)

// Legacy maps each legacy name to the rule that migrates it.
var Legacy = map[string]string{
	"solid":                   "solid-to-op",
	"lambda_solid":            "solid-to-op",
	"composite_solid":         "composite-to-graph",
	"pipeline":                "pipeline-to-job",
	"PipelineDefinition":      "pipeline-to-job",
	"ModeDefinition":          "pipeline-to-job",
	"PresetDefinition":        "pipeline-to-job",
	"execute_pipeline":        "execute-pipeline",
	"InputDefinition":         "io-defs",
	"OutputDefinition":        "io-defs",
	"DynamicOutputDefinition": "io-defs",
}

// Diagnostic is one legacy reference.
type Diagnostic struct {
	Path   string
	Line   uint32 // 0-indexed
	Column uint32 // 0-indexed
	Symbol string
	Rule   string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: legacy %s (migrate with %s)", d.Path, d.Line+1, d.Column+1, d.Symbol, d.Rule)
}

// Decorators, calls and imported names. Plain references (a name passed as
// a value) are not reported: rewriting them is the rename pass's job.
const query = `
(decorator (identifier) @name)
(call function: (identifier) @name)
(import_from_statement
	name: [
		(dotted_name . (identifier) @name .)
		(aliased_import name: (dotted_name . (identifier) @name .))
	])
`

var compiled *sitter.Query

func init() {
	q, err := sitter.NewQuery([]byte(query), python.GetLanguage())
	if err != nil {
		panic(fmt.Sprintf("linter: bad query: %v", err))
	}
	compiled = q
}

// Lint returns the legacy references in content, in source order.
func Lint(ctx context.Context, path string, content []byte) ([]Diagnostic, error) {
	f, err := cst.Parse(ctx, path, content)
	if err != nil {
		return nil, err
	}
	return LintFile(f), nil
}

// LintFile is Lint over an already parsed file.
func LintFile(f *cst.File) []Diagnostic {
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(compiled, f.Root())

	seen := map[uint32]bool{}
	var diags []Diagnostic
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			name := f.Text(c.Node)
			rule, legacy := Legacy[name]
			if !legacy || seen[c.Node.StartByte()] {
				continue
			}
			seen[c.Node.StartByte()] = true
			p := c.Node.StartPoint()
			diags = append(diags, Diagnostic{
				Path:   f.Path,
				Line:   p.Row,
				Column: p.Column,
				Symbol: name,
				Rule:   rule,
			})
		}
	}
	sort.Slice(diags, func(i, j int) bool {
		if diags[i].Line != diags[j].Line {
			return diags[i].Line < diags[j].Line
		}
		return diags[i].Column < diags[j].Column
	})
	return diags
}

// Counts tallies diagnostics per rule.
func Counts(diags []Diagnostic) map[string]int {
	out := map[string]int{}
	for _, d := range diags {
		out[d.Rule]++
	}
	return out
}
