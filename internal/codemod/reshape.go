package codemod

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/agentic-research/codemods/internal/cst"
)

// Kind is the shape a reshaped definition list takes.
type Kind int

const (
	// Inputs always become a mapping.
	Inputs Kind = iota
	// Outputs become a bare call when there is exactly one unnamed element.
	Outputs
)

var (
	// InputConstructors maps legacy input definition classes to their
	// replacements.
	InputConstructors = map[string]string{
		"InputDefinition": "In",
	}
	// OutputConstructors maps legacy output definition classes to their
	// replacements.
	OutputConstructors = map[string]string{
		"OutputDefinition":        "Out",
		"DynamicOutputDefinition": "DynamicOut",
	}
)

// Reshaper converts a list of definition constructor calls into the value
// accepted by the newer keyword.
type Reshaper struct {
	Kind  Kind
	Ctors map[string]string
	Names NamePolicy
}

// InsReshaper converts input_defs=[...] into ins={...}.
func InsReshaper() Reshaper {
	return Reshaper{Kind: Inputs, Ctors: InputConstructors, Names: InputName}
}

// OutReshaper converts output_defs=[...] into out=... using names.
func OutReshaper(names NamePolicy) Reshaper {
	return Reshaper{Kind: Outputs, Ctors: OutputConstructors, Names: names}
}

type entry struct {
	key  string // empty when unnamed
	call string
	node *sitter.Node
}

// ReshapeList converts a list literal of constructor calls. It returns the
// new value text and the bare constructor names it introduced.
func (s Reshaper) ReshapeList(c *Context, r *cst.Rewriter, list *sitter.Node) (string, []string, error) {
	if list == nil || list.Type() != "list" {
		return "", nil, Unsupported(c, list, "definition list", "expected a list literal, got %s", nodeType(list))
	}
	var entries []entry
	var used []string
	for _, el := range cst.Elements(list) {
		e, sym, err := s.convert(c, r, el)
		if err != nil {
			return "", nil, err
		}
		entries = append(entries, e)
		if sym != "" {
			used = append(used, sym)
		}
	}

	if s.Kind == Outputs && len(entries) == 1 && entries[0].key == "" {
		return entries[0].call, used, nil
	}
	items := make([]string, len(entries))
	for i, e := range entries {
		if e.key == "" {
			return "", nil, missingName(c, e.node, "output definition")
		}
		items[i] = e.key + ": " + e.call
	}
	return "{" + strings.Join(items, ", ") + "}", used, nil
}

// ReshapeCall converts a single constructor call, as passed to output_def=.
func (s Reshaper) ReshapeCall(c *Context, r *cst.Rewriter, call *sitter.Node) (string, []string, error) {
	e, sym, err := s.convert(c, r, call)
	if err != nil {
		return "", nil, err
	}
	var used []string
	if sym != "" {
		used = append(used, sym)
	}
	if e.key == "" {
		return e.call, used, nil
	}
	return "{" + e.key + ": " + e.call + "}", used, nil
}

// convert rewrites one constructor call. sym is the replacement constructor
// when it is spelled as a bare name and so needs importing.
func (s Reshaper) convert(c *Context, r *cst.Rewriter, call *sitter.Node) (entry, string, error) {
	f := r.File()
	list := cst.ArgumentList(call)
	if list == nil {
		return entry{}, "", Unsupported(c, call, "definition", "expected a constructor call, got %s", nodeType(call))
	}
	callee := call.ChildByFieldName("function")
	qualifier, ctor := "", f.Text(callee)
	if callee.Type() == "attribute" {
		attr := callee.ChildByFieldName("attribute")
		ctor = f.Text(attr)
		qualifier = string(f.Bytes()[callee.StartByte():attr.StartByte()])
	}
	repl, ok := s.Ctors[ctor]
	if !ok {
		return entry{}, "", Unsupported(c, callee, "definition", "unrecognized constructor %q", ctor)
	}

	args := cst.Args(f, list)
	name, _ := ExtractName(args, s.Names)
	texts := r.CurrentTexts(args)
	e := entry{node: call}
	if name != nil {
		e.key = r.Text(name.Value)
		texts[name.Index] = ""
	} else if s.Kind == Inputs {
		return entry{}, "", missingName(c, call, "input definition")
	}
	e.call = qualifier + repl + r.RenderArgs(list, args, texts)

	if qualifier != "" {
		return e, "", nil
	}
	return e, repl, nil
}

// DefArg describes one legacy definition keyword and its replacement.
type DefArg struct {
	Keyword string
	Rename  string
	// Single marks a keyword that takes one constructor call, not a list.
	Single   bool
	Reshaper Reshaper
}

var (
	InputDefs  = DefArg{Keyword: "input_defs", Rename: "ins", Reshaper: InsReshaper()}
	OutputDefs = DefArg{Keyword: "output_defs", Rename: "out", Reshaper: OutReshaper(OutputName)}
	OutputDef  = DefArg{Keyword: "output_def", Rename: "out", Single: true, Reshaper: OutReshaper(OutputName)}
)

// WithNames returns a copy of d using a different name policy.
func (d DefArg) WithNames(p NamePolicy) DefArg {
	d.Reshaper.Names = p
	return d
}

// ReshapeArg replaces the argument passed as d.Keyword, in place, with
// d.Rename and the reshaped value. texts holds the current argument texts
// and is updated. It reports whether the argument was present.
func ReshapeArg(c *Context, r *cst.Rewriter, args []cst.Arg, texts []string, d DefArg) ([]string, bool, error) {
	i := cst.FindArg(args, d.Keyword)
	if i < 0 {
		return nil, false, nil
	}
	a := args[i]
	var (
		value string
		used  []string
		err   error
	)
	if d.Single {
		value, used, err = d.Reshaper.ReshapeCall(c, r, a.Value)
	} else {
		value, used, err = d.Reshaper.ReshapeList(c, r, a.Value)
	}
	if err != nil {
		return nil, true, err
	}
	texts[i] = RenameKeyword(r, a, d.Rename, value)
	return used, true, nil
}

// RenameKeyword renders keyword argument a as keyword=value, keeping the
// spacing around "=". An empty value keeps the argument's current value.
func RenameKeyword(r *cst.Rewriter, a cst.Arg, keyword, value string) string {
	if value == "" {
		value = r.Text(a.Value)
	}
	kw := a.KeywordNode()
	if kw == nil {
		return keyword + "=" + value
	}
	eq := string(r.File().Bytes()[kw.EndByte():a.Value.StartByte()])
	return keyword + eq + value
}

func nodeType(n *sitter.Node) string {
	if n == nil {
		return "nothing"
	}
	return n.Type()
}
