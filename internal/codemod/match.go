package codemod

import (
	"slices"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/agentic-research/codemods/internal/cst"
)

// MatchKind classifies how a legacy marker is spelled at a use site.
type MatchKind int

const (
	NoMatch MatchKind = iota
	// Bare is a plain name: @solid
	Bare
	// Invoked is a call of the name: @solid(...) or PipelineDefinition(...)
	Invoked
)

func (k MatchKind) String() string {
	switch k {
	case Bare:
		return "bare"
	case Invoked:
		return "invoked"
	}
	return "none"
}

// Match describes one recognised decorator or call.
type Match struct {
	Kind MatchKind
	// Name is the legacy identifier that matched.
	Name string
	// Callee is the identifier node spelling Name.
	Callee *sitter.Node
	// Expr is the decorator expression or the call itself.
	Expr *sitter.Node
	// Call and List are set for Invoked matches.
	Call *sitter.Node
	List *sitter.Node
	Args []cst.Arg
}

// ClassifyDecorator matches a decorator spelled as one of names, either bare
// or invoked with arbitrary arguments. Matching is purely by spelling: a local
// function that shadows a legacy name is indistinguishable from the real one.
func ClassifyDecorator(f *cst.File, dec *sitter.Node, names ...string) Match {
	if dec == nil || dec.Type() != "decorator" {
		return Match{}
	}
	kids := cst.NamedChildren(dec)
	if len(kids) == 0 {
		return Match{}
	}
	expr := kids[0]
	if expr.Type() == "identifier" {
		if name := f.Text(expr); slices.Contains(names, name) {
			return Match{Kind: Bare, Name: name, Callee: expr, Expr: expr}
		}
		return Match{}
	}
	m := ClassifyCall(f, expr, names...)
	if m.Kind == Invoked {
		m.Expr = expr
	}
	return m
}

// ClassifyCall matches a call whose callee is a bare identifier in names.
func ClassifyCall(f *cst.File, call *sitter.Node, names ...string) Match {
	list := cst.ArgumentList(call)
	if list == nil {
		return Match{}
	}
	callee := call.ChildByFieldName("function")
	if callee == nil || callee.Type() != "identifier" {
		return Match{}
	}
	name := f.Text(callee)
	if !slices.Contains(names, name) {
		return Match{}
	}
	return Match{
		Kind:   Invoked,
		Name:   name,
		Callee: callee,
		Expr:   call,
		Call:   call,
		List:   list,
		Args:   cst.Args(f, list),
	}
}

// CalleeName returns the identifier a call invokes, or "" when the callee is
// any other expression.
func CalleeName(f *cst.File, call *sitter.Node) string {
	if call == nil || call.Type() != "call" {
		return ""
	}
	callee := call.ChildByFieldName("function")
	if callee == nil || callee.Type() != "identifier" {
		return ""
	}
	return f.Text(callee)
}

// SingleCallElement returns the call in a list literal holding exactly one
// element that invokes ctor.
func SingleCallElement(f *cst.File, list *sitter.Node, ctor string) (*sitter.Node, bool) {
	elems := cst.Elements(list)
	if len(elems) != 1 {
		return nil, false
	}
	if CalleeName(f, elems[0]) != ctor || cst.ArgumentList(elems[0]) == nil {
		return nil, false
	}
	return elems[0], true
}

// Decorators returns the decorators of a decorated_definition in order.
func Decorators(decorated *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range cst.NamedChildren(decorated) {
		if c.Type() == "decorator" {
			out = append(out, c)
		}
	}
	return out
}

// Definition returns the function or class a decorated_definition wraps.
func Definition(decorated *sitter.Node) *sitter.Node {
	if decorated == nil || decorated.Type() != "decorated_definition" {
		return nil
	}
	return decorated.ChildByFieldName("definition")
}

// DefinitionName returns the identifier naming a function or class.
func DefinitionName(def *sitter.Node) *sitter.Node {
	if def == nil {
		return nil
	}
	return def.ChildByFieldName("name")
}

// FindDecorator returns the first decorator of decorated that matches one of
// names.
func FindDecorator(f *cst.File, decorated *sitter.Node, names ...string) (*sitter.Node, Match) {
	for _, dec := range Decorators(decorated) {
		if m := ClassifyDecorator(f, dec, names...); m.Kind != NoMatch {
			return dec, m
		}
	}
	return nil, Match{}
}
