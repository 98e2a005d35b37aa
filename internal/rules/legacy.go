package rules

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/agentic-research/codemods/internal/codemod"
	"github.com/agentic-research/codemods/internal/cst"
)

// LegacyImports moves the listed names from "from dagster import ..." to
// "from dagster._legacy import ...".
type LegacyImports struct {
	Symbols []string
}

func newLegacyImports(a Args) (codemod.Rule, error) {
	syms := a.List("imported")
	if len(syms) == 0 {
		return nil, fmt.Errorf("rule legacy-imports: imported lists no symbols")
	}
	return &LegacyImports{Symbols: syms}, nil
}

func (l *LegacyImports) Name() string { return "legacy-imports" }

func (l *LegacyImports) Description() string {
	return "Converts dagster imports to dagster._legacy imports."
}

func (l *LegacyImports) Leave(c *codemod.Context, r *cst.Rewriter, n *sitter.Node) (string, bool, error) {
	f := r.File()
	imp, ok := codemod.ParseFromImport(f, n)
	if !ok || imp.Module != dagster {
		return "", false, nil
	}
	keep, moved := l.split(imp.Names)
	if len(moved) == 0 {
		return "", false, nil
	}
	sort.Strings(moved)
	c.Log.V(1).Info("moving legacy imports", "symbols", moved)

	var lines []string
	if len(keep) > 0 {
		lines = append(lines, codemod.FromImportText(dagster, keep))
	}
	if l.inPlace(f, n) {
		lines = append(lines, codemod.FromImportText(dagsterLegacy, moved))
	} else {
		c.Require(dagsterLegacy, moved...)
	}
	if len(lines) == 0 {
		if soleStatement(n) {
			return "pass", true, nil
		}
		return "", true, nil
	}
	return strings.Join(lines, "\n"+indentOf(f, n)), true, nil
}

func (l *LegacyImports) split(names []string) (keep, moved []string) {
	for _, name := range names {
		base, _, _ := strings.Cut(name, " as ")
		if slices.Contains(l.Symbols, base) {
			moved = append(moved, name)
		} else {
			keep = append(keep, name)
		}
	}
	return keep, moved
}

// inPlace reports whether n should be followed directly by the new
// dagster._legacy import: n is the first top-level dagster import that
// moves anything and the file has no dagster._legacy import to merge into.
// Every other statement defers to import synthesis.
func (l *LegacyImports) inPlace(f *cst.File, n *sitter.Node) bool {
	for _, imp := range codemod.Imports(f) {
		if imp.Module == dagsterLegacy {
			return false
		}
	}
	for _, imp := range codemod.Imports(f) {
		if imp.Module != dagster {
			continue
		}
		if _, moved := l.split(imp.Names); len(moved) > 0 {
			return cst.Same(imp.Node, n)
		}
	}
	return false
}

func soleStatement(n *sitter.Node) bool {
	parent := n.Parent()
	return parent != nil && parent.Type() == "block" && len(cst.NamedChildren(parent)) == 1
}

// indentOf returns the whitespace between the start of n's line and n.
func indentOf(f *cst.File, n *sitter.Node) string {
	src := f.Bytes()
	start := int(n.StartByte())
	i := start
	for i > 0 && src[i-1] != '\n' {
		i--
	}
	return strings.Map(func(r rune) rune {
		if r == '\t' {
			return r
		}
		return ' '
	}, string(src[i:start]))
}
