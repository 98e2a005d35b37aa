package codemod

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/agentic-research/codemods/internal/cst"
)

// Rule is one migration. Leave is called for every node after its children
// and returns replacement text for n, or ok=false to keep it. A Rule holds
// no per-file state; everything it learns goes into the Context.
type Rule interface {
	Name() string
	Description() string
	Leave(c *Context, r *cst.Rewriter, n *sitter.Node) (repl string, ok bool, err error)
}

// Starter is implemented by rules that seed the Context before the primary
// pass.
type Starter interface {
	Start(c *Context, f *cst.File) error
}

// Apply runs rule over f: the rule's own pass, then the rename pass, then
// import synthesis. Each stage returns a new File.
func Apply(ctx context.Context, rule Rule, f *cst.File, c *Context) (*cst.File, error) {
	if s, ok := rule.(Starter); ok {
		if err := s.Start(c, f); err != nil {
			return nil, err
		}
	}
	out, err := f.Rewrite(ctx, func(r *cst.Rewriter, n *sitter.Node) (string, bool, error) {
		return rule.Leave(c, r, n)
	})
	if err != nil {
		return nil, err
	}
	if out, err = ApplyRenames(ctx, out, c); err != nil {
		return nil, fmt.Errorf("apply renames: %w", err)
	}
	if out, err = AddImports(ctx, out, c); err != nil {
		return nil, fmt.Errorf("add imports: %w", err)
	}
	return out, nil
}

// Transform parses src, applies rule and returns the rewritten source. Input
// that does not parse is rejected with ErrSyntax; output that does not
// parse is reported as a rule failure and never returned.
func Transform(ctx context.Context, rule Rule, path string, src []byte, log logr.Logger) ([]byte, error) {
	f, err := cst.Parse(ctx, path, src)
	if err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}

	c := NewContext(path, log.WithValues("rule", rule.Name()))
	out, err := Apply(ctx, rule, f, c)
	if err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("rule %s produced invalid output: %w", rule.Name(), err)
	}
	return out.Bytes(), nil
}
