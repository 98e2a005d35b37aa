package rules

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/agentic-research/codemods/internal/codemod"
	"github.com/agentic-research/codemods/internal/cst"
)

const (
	dagster       = "dagster"
	dagsterLegacy = "dagster._legacy"
)

var (
	solidPolicy = codemod.Policy{
		{Old: "lambda_solid", New: "op"},
		{Old: "solid", New: "op"},
		{Old: "lambda", New: "op"},
	}
	// contextPolicy renames attributes read off the execution context
	// inside op bodies.
	contextPolicy = codemod.Policy{
		{Old: "solid", New: "op"},
		{Old: "pipeline_run", New: "run"},
		{Old: "pipeline_name", New: "job_name"},
	}
	solidDefArgs = []codemod.DefArg{
		codemod.InputDefs,
		codemod.OutputDefs,
		codemod.OutputDef,
	}
)

// SolidToOp converts @solid and @lambda_solid to @op.
type SolidToOp struct{}

func (SolidToOp) Name() string { return "solid-to-op" }

func (SolidToOp) Description() string {
	return "Converts invocations of solid to op, renames the function if the function name contains solid, and renames all mention of the former solid's name."
}

func (SolidToOp) Start(c *codemod.Context, _ *cst.File) error {
	c.RenameAttributes("context", contextPolicy)
	return nil
}

func (SolidToOp) Leave(c *codemod.Context, r *cst.Rewriter, n *sitter.Node) (string, bool, error) {
	if n.Type() != "decorated_definition" {
		return "", false, nil
	}
	f := r.File()
	dec, m := codemod.FindDecorator(f, n, "solid", "lambda_solid")
	if m.Kind == codemod.NoMatch {
		return "", false, nil
	}
	name := f.Text(codemod.DefinitionName(codemod.Definition(n)))
	if strings.Contains(name, "solid") {
		c.Rename(name, solidPolicy.Apply(name))
	}

	expr := "op"
	if m.Kind == codemod.Invoked {
		texts, _, err := reshapeDefs(c, r, m, solidDefArgs)
		if err != nil {
			return "", false, err
		}
		expr = r.Splice(m.Call,
			cst.Replace(m.Callee, "op"),
			cst.Replace(m.List, r.RenderArgs(m.List, m.Args, texts)))
	}
	c.Require(dagster, "op")
	c.Log.V(1).Info("converted solid", "name", name, "form", m.Kind.String())
	return r.Splice(n, cst.Replace(dec, r.Splice(dec, cst.Replace(m.Expr, expr)))), true, nil
}
