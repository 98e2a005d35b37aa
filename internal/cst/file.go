// Package cst wraps tree-sitter's Python grammar as an immutable,
// formatting-preserving syntax tree. A File is never modified: rewrites
// splice replacement text into the original bytes and re-parse the result.
package cst

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// File is one parsed Python source file.
type File struct {
	Path string
	src  []byte
	tree *sitter.Tree
}

// Parse parses src as Python. Syntax errors do not fail the parse; they
// show up as ERROR or MISSING nodes (see Validate).
func Parse(ctx context.Context, path string, src []byte) (*File, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	owned := append([]byte(nil), src...)
	tree, err := parser.ParseCtx(ctx, nil, owned)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed for %s: %w", path, err)
	}
	if tree == nil || tree.RootNode() == nil {
		return nil, fmt.Errorf("tree-sitter returned nil root for %s", path)
	}
	return &File{Path: path, src: owned, tree: tree}, nil
}

// Root returns the module node.
func (f *File) Root() *sitter.Node {
	return f.tree.RootNode()
}

// Bytes prints the tree back to source text.
func (f *File) Bytes() []byte {
	return f.src
}

// Text returns the source text covered by n.
func (f *File) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	start, end := n.StartByte(), n.EndByte()
	if int(end) > len(f.src) || start > end {
		return ""
	}
	return string(f.src[start:end])
}

// Statements returns the named top-level children of the module, skipping
// comments.
func (f *File) Statements() []*sitter.Node {
	return NamedChildren(f.Root())
}

// NamedChildren returns the named children of n other than comments.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// key identifies a node across separately materialized *sitter.Node values.
type key struct {
	start, end uint32
	sym        sitter.Symbol
}

func keyOf(n *sitter.Node) key {
	return key{start: n.StartByte(), end: n.EndByte(), sym: n.Symbol()}
}

// Same reports whether a and b denote the same node of one tree.
func Same(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return keyOf(a) == keyOf(b)
}
