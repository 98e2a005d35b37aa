package rules

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/agentic-research/codemods/internal/codemod"
	"github.com/agentic-research/codemods/internal/cst"
)

var compositePolicy = codemod.Policy{
	{Old: "composite_solid", New: "graph"},
	{Old: "composite", New: "graph"},
	{Old: "solid", New: "graph"},
}

// CompositeToGraph converts @composite_solid to @graph.
type CompositeToGraph struct{}

func (CompositeToGraph) Name() string { return "composite-to-graph" }

func (CompositeToGraph) Description() string {
	return "Converts invocations of composite_solid to graph, renames the function if the function name contains solid, and renames all mention of the former solid's name."
}

func (CompositeToGraph) Leave(c *codemod.Context, r *cst.Rewriter, n *sitter.Node) (string, bool, error) {
	if n.Type() != "decorated_definition" {
		return "", false, nil
	}
	f := r.File()
	dec, m := codemod.FindDecorator(f, n, "composite_solid")
	if m.Kind == codemod.NoMatch {
		return "", false, nil
	}
	name := f.Text(codemod.DefinitionName(codemod.Definition(n)))
	if codemod.Mentions(name, "solid", "composite") {
		c.Rename(name, compositePolicy.Apply(name))
	}

	expr := "graph"
	if m.Kind == codemod.Invoked {
		if cst.FindArg(m.Args, "input_defs") >= 0 || cst.FindArg(m.Args, "output_defs") >= 0 {
			c.Unrename(name)
			c.Log.V(1).Info("left composite unchanged", "name", name, "reason", "input_defs/output_defs")
			return "", false, nil
		}
		texts := r.CurrentTexts(m.Args)
		if foldConfigMapping(m.Args, texts) {
			c.Require(dagster, "ConfigMapping")
		}
		expr = r.Splice(m.Call,
			cst.Replace(m.Callee, "graph"),
			cst.Replace(m.List, r.RenderArgs(m.List, m.Args, texts)))
	}
	c.Require(dagster, "graph")
	c.Log.V(1).Info("converted composite", "name", name, "form", m.Kind.String())
	return r.Splice(n, cst.Replace(dec, r.Splice(dec, cst.Replace(m.Expr, expr)))), true, nil
}

// foldConfigMapping replaces config_schema and config_fn with a single
// config=ConfigMapping(...) at the position of whichever came first.
func foldConfigMapping(args []cst.Arg, texts []string) bool {
	schema, fn := cst.FindArg(args, "config_schema"), cst.FindArg(args, "config_fn")
	if schema < 0 && fn < 0 {
		return false
	}
	var inner []string
	first := len(args)
	for _, i := range []int{schema, fn} {
		if i < 0 {
			continue
		}
		inner = append(inner, texts[i])
		texts[i] = ""
		first = min(first, i)
	}
	texts[first] = "config=" + cst.CallText("ConfigMapping", inner)
	return true
}
