package rules

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/agentic-research/codemods/internal/codemod"
	"github.com/agentic-research/codemods/internal/cst"
)

// IODefs rewrites input_defs/output_defs on calls to op, including @op(...).
type IODefs struct{}

var ioDefArgs = []codemod.DefArg{
	codemod.InputDefs,
	codemod.OutputDefs.WithNames(codemod.StrictOutputName),
	codemod.OutputDef.WithNames(codemod.StrictOutputName),
}

func (IODefs) Name() string { return "io-defs" }

func (IODefs) Description() string {
	return "Converts input_defs and output_defs arguments of op to ins and out."
}

func (IODefs) Leave(c *codemod.Context, r *cst.Rewriter, n *sitter.Node) (string, bool, error) {
	if n.Type() != "call" {
		return "", false, nil
	}
	m := codemod.ClassifyCall(r.File(), n, "op")
	if m.Kind != codemod.Invoked {
		return "", false, nil
	}
	texts, changed, err := reshapeDefs(c, r, m, ioDefArgs)
	if err != nil || !changed {
		return "", false, err
	}
	return r.Splice(n, cst.Replace(m.List, r.RenderArgs(m.List, m.Args, texts))), true, nil
}

// reshapeDefs applies every DefArg to an invoked match and requires the
// constructors it introduced.
func reshapeDefs(c *codemod.Context, r *cst.Rewriter, m codemod.Match, defs []codemod.DefArg) ([]string, bool, error) {
	texts := r.CurrentTexts(m.Args)
	changed := false
	for _, d := range defs {
		used, found, err := codemod.ReshapeArg(c, r, m.Args, texts, d)
		if err != nil {
			return nil, false, err
		}
		if found {
			changed = true
			c.Require(dagster, used...)
		}
	}
	return texts, changed, nil
}
