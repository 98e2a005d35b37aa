package rules

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/agentic-research/codemods/internal/codemod"
	"github.com/agentic-research/codemods/internal/cst"
)

// SwitchInvocationArgs renames or deletes one argument of every call to
// Symbol, decorator invocations included.
type SwitchInvocationArgs struct {
	Symbol     string
	OrigArg    string
	OrigArgPos int
	// ReplaceArg is the new keyword. Empty deletes the argument.
	ReplaceArg string
}

func newSwitchInvocationArgs(a Args) (codemod.Rule, error) {
	pos, err := a.Int("orig_arg_pos")
	if err != nil {
		return nil, err
	}
	return &SwitchInvocationArgs{
		Symbol:     a.String("symbol"),
		OrigArg:    a.String("orig_arg"),
		OrigArgPos: pos,
		ReplaceArg: a.String("replace_arg"),
	}, nil
}

func (s *SwitchInvocationArgs) Name() string { return "switch-invocation-args" }

func (s *SwitchInvocationArgs) Description() string {
	return "Switches the arguments of a function/class invocation to the ones specified."
}

func (s *SwitchInvocationArgs) Leave(c *codemod.Context, r *cst.Rewriter, n *sitter.Node) (string, bool, error) {
	if n.Type() != "call" {
		return "", false, nil
	}
	m := codemod.ClassifyCall(r.File(), n, s.Symbol)
	if m.Kind != codemod.Invoked {
		return "", false, nil
	}
	i := s.locate(m.Args)
	if i < 0 {
		return "", false, nil
	}

	a := m.Args[i]
	texts := r.CurrentTexts(m.Args)
	switch {
	case s.ReplaceArg == "":
		texts[i] = ""
	case a.Keyword == "":
		// A positional argument has no keyword to rename.
		return "", false, nil
	default:
		texts[i] = codemod.RenameKeyword(r, a, s.ReplaceArg, "")
	}
	c.Log.V(1).Info("switched argument", "symbol", s.Symbol, "arg", s.OrigArg, "to", s.ReplaceArg)
	return r.Splice(n, cst.Replace(m.List, r.RenderArgs(m.List, m.Args, texts))), true, nil
}

// locate finds the argument by keyword, falling back to the positional
// argument at OrigArgPos.
func (s *SwitchInvocationArgs) locate(args []cst.Arg) int {
	if i := cst.FindArg(args, s.OrigArg); i >= 0 {
		return i
	}
	if s.OrigArgPos >= 0 && s.OrigArgPos < len(args) && args[s.OrigArgPos].Positional() {
		return s.OrigArgPos
	}
	return -1
}
