package cst

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Arg is one argument of a call or invoked decorator.
type Arg struct {
	// Node is the whole argument: a keyword_argument, a splat, or the
	// positional expression itself.
	Node    *sitter.Node
	Keyword string
	Value   *sitter.Node
	// Star is "*" or "**" for unpacked arguments.
	Star  string
	Index int
}

// Positional reports whether a is a plain positional argument.
func (a Arg) Positional() bool {
	return a.Keyword == "" && a.Star == ""
}

// KeywordNode returns the identifier naming a keyword argument, or nil.
func (a Arg) KeywordNode() *sitter.Node {
	if a.Node == nil || a.Node.Type() != "keyword_argument" {
		return nil
	}
	return a.Node.ChildByFieldName("name")
}

// ArgumentList returns the argument_list of a call node, or nil when n is
// not a call or is called with a bare generator expression.
func ArgumentList(n *sitter.Node) *sitter.Node {
	if n == nil || n.Type() != "call" {
		return nil
	}
	list := n.ChildByFieldName("arguments")
	if list == nil || list.Type() != "argument_list" {
		return nil
	}
	return list
}

// Args lists the arguments of an argument_list in source order.
func Args(f *File, list *sitter.Node) []Arg {
	var args []Arg
	for _, c := range NamedChildren(list) {
		a := Arg{Node: c, Value: c, Index: len(args)}
		switch c.Type() {
		case "keyword_argument":
			a.Keyword = f.Text(c.ChildByFieldName("name"))
			a.Value = c.ChildByFieldName("value")
		case "list_splat":
			a.Star = "*"
			a.Value = firstNamed(c)
		case "dictionary_splat":
			a.Star = "**"
			a.Value = firstNamed(c)
		}
		args = append(args, a)
	}
	return args
}

// FindArg returns the index of the argument passed as keyword, or -1.
func FindArg(args []Arg, keyword string) int {
	for i, a := range args {
		if a.Keyword == keyword {
			return i
		}
	}
	return -1
}

// Elements returns the elements of a list literal.
func Elements(list *sitter.Node) []*sitter.Node {
	if list == nil || list.Type() != "list" {
		return nil
	}
	return NamedChildren(list)
}

// IsString reports whether n is a plain or implicitly concatenated string
// literal.
func IsString(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	return n.Type() == "string" || n.Type() == "concatenated_string"
}

// CallText renders a fresh call expression.
func CallText(callee string, args []string) string {
	return callee + "(" + strings.Join(args, ", ") + ")"
}

// RenderArgs rebuilds an argument_list. texts[i] replaces args[i]; an empty
// string drops that argument. Separators, comments and line breaks that
// follow each surviving argument are kept, and the text between the last
// original argument and ")" closes the list, so a dropped trailing argument
// leaves no dangling comma behind.
func (r *Rewriter) RenderArgs(list *sitter.Node, args []Arg, texts []string) string {
	if len(args) == 0 {
		return r.Text(list)
	}
	src := r.f.src
	open := list.Child(0)
	closing := list.Child(int(list.ChildCount()) - 1)
	last := args[len(args)-1].Node

	var b strings.Builder
	b.WriteString("(")
	prev := -1
	for i, a := range args {
		if texts[i] == "" {
			continue
		}
		if prev < 0 {
			b.Write(src[open.EndByte():args[0].Node.StartByte()])
		} else {
			b.Write(src[args[prev].Node.EndByte():args[prev+1].Node.StartByte()])
		}
		b.WriteString(texts[i])
		prev = a.Index
	}
	if prev < 0 {
		return "()"
	}
	if prev == len(args)-1 {
		b.Write(src[last.EndByte():closing.StartByte()])
	} else {
		b.WriteString(trailing(string(src[last.EndByte():closing.StartByte()])))
	}
	b.WriteString(")")
	return b.String()
}

// CurrentTexts returns the current text of every argument, ready to be
// edited and passed to RenderArgs.
func (r *Rewriter) CurrentTexts(args []Arg) []string {
	texts := make([]string, len(args))
	for i, a := range args {
		texts[i] = r.Text(a.Node)
	}
	return texts
}

// trailing keeps the layout after the final argument (a trailing comma on
// its own line, a newline before ")") while discarding a lone comma.
func trailing(s string) string {
	if !strings.Contains(s, "\n") {
		return ""
	}
	return s
}

func firstNamed(n *sitter.Node) *sitter.Node {
	kids := NamedChildren(n)
	if len(kids) == 0 {
		return nil
	}
	return kids[0]
}
