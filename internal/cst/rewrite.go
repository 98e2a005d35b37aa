package cst

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// LeaveFunc is called for every node after all of its children have been
// visited. Returning ok=true replaces the node's text with repl; returning
// the node's original source undoes any edit made below it.
type LeaveFunc func(r *Rewriter, n *sitter.Node) (repl string, ok bool, err error)

// Replacement substitutes Text for a direct child Node in Splice.
type Replacement struct {
	Node *sitter.Node
	Text string
}

// Replace is shorthand for Replacement{n, text}.
func Replace(n *sitter.Node, text string) Replacement {
	return Replacement{Node: n, Text: text}
}

// Rewriter tracks the updated text of every node changed during one
// Rewrite pass. Parents are rebuilt from their children bottom-up; the
// original bytes between children are always carried over.
type Rewriter struct {
	f       *File
	leave   LeaveFunc
	updated map[key]string
}

// Rewrite runs leave over every node of f in post-order and returns the
// re-parsed result. When nothing changed, f itself is returned.
func (f *File) Rewrite(ctx context.Context, leave LeaveFunc) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := &Rewriter{f: f, leave: leave, updated: make(map[key]string)}
	root := f.Root()
	if err := r.visit(root); err != nil {
		return nil, err
	}
	if !r.Changed(root) {
		return f, nil
	}

	var b strings.Builder
	b.Write(f.src[:root.StartByte()])
	b.WriteString(r.Text(root))
	b.Write(f.src[root.EndByte():])
	return Parse(ctx, f.Path, []byte(b.String()))
}

func (r *Rewriter) visit(n *sitter.Node) error {
	changed := false
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		if err := r.visit(c); err != nil {
			return err
		}
		if r.Changed(c) {
			changed = true
		}
	}
	if changed {
		r.set(n, r.Splice(n))
	}

	repl, ok, err := r.leave(r, n)
	if err != nil {
		return err
	}
	if ok {
		r.set(n, repl)
	}
	return nil
}

func (r *Rewriter) set(n *sitter.Node, text string) {
	k := keyOf(n)
	if text == r.Source(n) {
		delete(r.updated, k)
		return
	}
	r.updated[k] = text
}

// File returns the file being rewritten.
func (r *Rewriter) File() *File {
	return r.f
}

// Source returns the original text of n.
func (r *Rewriter) Source(n *sitter.Node) string {
	return r.f.Text(n)
}

// Text returns the text of n including every edit made at or below it so far.
func (r *Rewriter) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	if t, ok := r.updated[keyOf(n)]; ok {
		return t
	}
	return r.Source(n)
}

// Changed reports whether n or one of its descendants has been edited.
func (r *Rewriter) Changed(n *sitter.Node) bool {
	_, ok := r.updated[keyOf(n)]
	return ok
}

// Splice rebuilds n from its direct children, using the given replacements
// for the children they name and the current text for all others.
//
// A statement of a module or block whose new text is empty is removed
// together with its line.
func (r *Rewriter) Splice(n *sitter.Node, repls ...Replacement) string {
	src := r.f.src
	dropLines := n.Type() == "module" || n.Type() == "block"

	var b strings.Builder
	pos := n.StartByte()
	trimNext, trimIndent := false, false
	gap := func(s string) {
		if trimNext {
			s = trimFirstLine(s)
			if trimIndent {
				s = strings.TrimLeft(s, " \t")
			}
			trimNext, trimIndent = false, false
		}
		b.WriteString(s)
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		text, replaced := lookup(repls, c)
		if !replaced {
			text = r.Text(c)
		}
		gap(string(src[pos:c.StartByte()]))
		pos = c.EndByte()

		if text == "" && dropLines && c.IsNamed() && c.EndByte() > c.StartByte() {
			// Remove the indentation written for the dropped statement and
			// the line break before it. With nothing before it, remove the
			// line break after it instead, together with the next line's
			// indentation, which the first statement of a block inherits
			// from the enclosing node.
			cut := strings.TrimRight(b.String(), " \t")
			b.Reset()
			if cut == "" {
				trimNext, trimIndent = true, true
				continue
			}
			cut = strings.TrimSuffix(cut, "\n")
			cut = strings.TrimSuffix(cut, "\r")
			b.WriteString(cut)
			continue
		}
		b.WriteString(text)
	}
	gap(string(src[pos:n.EndByte()]))
	return b.String()
}

func lookup(repls []Replacement, n *sitter.Node) (string, bool) {
	for _, rp := range repls {
		if Same(rp.Node, n) {
			return rp.Text, true
		}
	}
	return "", false
}

// trimFirstLine drops leading horizontal space and one line break.
func trimFirstLine(s string) string {
	s = strings.TrimLeft(s, " \t")
	switch {
	case strings.HasPrefix(s, "\r\n"):
		return s[2:]
	case strings.HasPrefix(s, "\n"):
		return s[1:]
	}
	return s
}
