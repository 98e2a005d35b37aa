package rules

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/agentic-research/codemods/internal/codemod"
	"github.com/agentic-research/codemods/internal/cst"
)

// primaries can take a method call without parentheses.
var primaries = map[string]bool{
	"identifier":               true,
	"attribute":                true,
	"call":                     true,
	"subscript":                true,
	"parenthesized_expression": true,
}

// ExecutePipeline converts execute_pipeline(p, ...) to
// p.execute_in_process(...). Every argument other than the receiver is
// passed through as written.
type ExecutePipeline struct{}

func (ExecutePipeline) Name() string { return "execute-pipeline" }

func (ExecutePipeline) Description() string {
	return "Converts invocations of execute_pipeline to invocations of execute_in_process."
}

func (ExecutePipeline) Leave(c *codemod.Context, r *cst.Rewriter, n *sitter.Node) (string, bool, error) {
	if n.Type() != "call" {
		return "", false, nil
	}
	m := codemod.ClassifyCall(r.File(), n, "execute_pipeline")
	if m.Kind != codemod.Invoked {
		return "", false, nil
	}
	recv := receiverIndex(m.Args)
	if recv < 0 {
		return "", false, nil
	}
	texts := r.CurrentTexts(m.Args)
	receiver := r.Text(m.Args[recv].Value)
	if !primaries[m.Args[recv].Value.Type()] {
		receiver = "(" + receiver + ")"
	}
	texts[recv] = ""
	c.Log.V(1).Info("converted execute_pipeline", "receiver", receiver)
	return receiver + ".execute_in_process" + r.RenderArgs(m.List, m.Args, texts), true, nil
}

func receiverIndex(args []cst.Arg) int {
	if i := cst.FindArg(args, "pipeline"); i >= 0 {
		return i
	}
	if len(args) > 0 && args[0].Positional() {
		return 0
	}
	return -1
}
