package codemod

import (
	"context"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/agentic-research/codemods/internal/cst"
)

// ApplyRenames rewrites every identifier equal to a staged rename key and
// every occurrence of a key inside a plain string literal. Substring
// replacement in strings is deliberately fuzzy: it also hits unrelated text
// that happens to contain a key.
func ApplyRenames(ctx context.Context, f *cst.File, c *Context) (*cst.File, error) {
	if len(c.renames) == 0 && len(c.receivers) == 0 {
		return f, nil
	}
	strs := substringReplacer(c.renames)

	out, err := f.Rewrite(ctx, func(r *cst.Rewriter, n *sitter.Node) (string, bool, error) {
		switch n.Type() {
		case "identifier":
			text := r.Source(n)
			if p, ok := c.receiverPolicy(r.File(), n); ok {
				if renamed := p.Apply(text); renamed != text {
					return renamed, true, nil
				}
			}
			if renamed, ok := c.renames[text]; ok {
				return renamed, true, nil
			}
		case "string":
			if strs == nil || interpolated(n) {
				return "", false, nil
			}
			text := r.Text(n)
			if renamed := strs.Replace(text); renamed != text {
				return renamed, true, nil
			}
		}
		return "", false, nil
	})
	if err != nil {
		return nil, err
	}
	if out != f {
		c.Log.V(1).Info("applied renames", "count", len(c.renames))
	}
	return out, nil
}

// receiverPolicy returns the attribute policy for n when n is the attribute
// name of an access on a registered receiver, e.g. "solid_config" in
// context.solid_config.
func (c *Context) receiverPolicy(f *cst.File, n *sitter.Node) (Policy, bool) {
	if len(c.receivers) == 0 {
		return nil, false
	}
	parent := n.Parent()
	if parent == nil || parent.Type() != "attribute" {
		return nil, false
	}
	if !cst.Same(parent.ChildByFieldName("attribute"), n) {
		return nil, false
	}
	obj := parent.ChildByFieldName("object")
	if obj == nil || obj.Type() != "identifier" {
		return nil, false
	}
	p, ok := c.receivers[f.Text(obj)]
	return p, ok
}

// substringReplacer builds one left-to-right replacer with longer keys first
// so that a key containing another wins at the same position.
func substringReplacer(renames map[string]string) *strings.Replacer {
	if len(renames) == 0 {
		return nil
	}
	keys := make([]string, 0, len(renames))
	for k := range renames {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, renames[k])
	}
	return strings.NewReplacer(pairs...)
}

func interpolated(str *sitter.Node) bool {
	for i := 0; i < int(str.NamedChildCount()); i++ {
		if str.NamedChild(i).Type() == "interpolation" {
			return true
		}
	}
	return false
}
