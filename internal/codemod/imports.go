package codemod

import (
	"context"
	"slices"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/agentic-research/codemods/internal/cst"
)

// FromImport is a parsed top-level "from <module> import ..." statement.
type FromImport struct {
	Node   *sitter.Node
	Module string
	// Names holds each imported name as written, "x" or "x as y".
	Names    []string
	Wildcard bool
}

// Imports returns the top-level from-imports of f in source order.
func Imports(f *cst.File) []FromImport {
	var out []FromImport
	for _, stmt := range f.Statements() {
		if imp, ok := ParseFromImport(f, stmt); ok {
			out = append(out, imp)
		}
	}
	return out
}

// ParseFromImport decodes n when it is an import_from_statement.
func ParseFromImport(f *cst.File, n *sitter.Node) (FromImport, bool) {
	if n == nil || n.Type() != "import_from_statement" {
		return FromImport{}, false
	}
	mod := n.ChildByFieldName("module_name")
	if mod == nil {
		return FromImport{}, false
	}
	imp := FromImport{Node: n, Module: f.Text(mod)}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil || cst.Same(c, mod) {
			continue
		}
		switch c.Type() {
		case "dotted_name":
			imp.Names = append(imp.Names, f.Text(c))
		case "aliased_import":
			imp.Names = append(imp.Names, normalizeAlias(f, c))
		case "wildcard_import":
			imp.Wildcard = true
		}
	}
	return imp, true
}

// Has reports whether symbol is already usable through this statement.
func (imp FromImport) Has(symbol string) bool {
	return imp.Wildcard || slices.Contains(imp.Names, symbol)
}

// FromImportText renders a single-line from-import.
func FromImportText(module string, names []string) string {
	return "from " + module + " import " + strings.Join(names, ", ")
}

// AddImports makes every symbol recorded with Require importable. Symbols
// already imported are skipped; missing ones are appended to the first
// existing top-level import from the same module or, failing that, added
// as a new statement after the leading imports. A merge leaves the rest of
// the existing statement untouched, comments and line breaks included.
func AddImports(ctx context.Context, f *cst.File, c *Context) (*cst.File, error) {
	reqs := c.Required()
	if len(reqs) == 0 {
		return f, nil
	}
	existing := Imports(f)

	merged := make(map[*sitter.Node]string)
	var inserts []string
	for _, req := range reqs {
		var first *FromImport
		var missing []string
		for _, sym := range req.Symbols {
			found := false
			for i := range existing {
				if existing[i].Module != req.Module {
					continue
				}
				if first == nil {
					first = &existing[i]
				}
				if existing[i].Has(sym) {
					found = true
				}
			}
			if !found {
				missing = append(missing, sym)
			}
		}
		if len(missing) == 0 {
			continue
		}
		c.Log.V(1).Info("adding imports", "module", req.Module, "symbols", missing)
		sort.Strings(missing)
		if first != nil {
			merged[first.Node] = mergeInto(f, first.Node, missing)
			continue
		}
		inserts = append(inserts, FromImportText(req.Module, missing))
	}
	if len(merged) == 0 && len(inserts) == 0 {
		return f, nil
	}

	return f.Rewrite(ctx, func(r *cst.Rewriter, n *sitter.Node) (string, bool, error) {
		if n.Type() != "module" {
			return "", false, nil
		}
		var repls []cst.Replacement
		for node, text := range merged {
			repls = append(repls, cst.Replace(node, text))
		}
		if len(inserts) == 0 {
			return r.Splice(n, repls...), true, nil
		}
		block := strings.Join(inserts, "\n")

		anchor, after := insertionPoint(f)
		if anchor == nil {
			text := r.Splice(n, repls...)
			if text != "" && !strings.HasSuffix(text, "\n") {
				text += "\n"
			}
			return text + block + "\n", true, nil
		}
		current, ok := mergedText(merged, anchor)
		if !ok {
			current = r.Text(anchor)
		}
		if after {
			current += "\n" + block
		} else {
			current = block + "\n\n" + current
		}
		// Splice takes the first replacement naming a node.
		repls = append([]cst.Replacement{cst.Replace(anchor, current)}, repls...)
		return r.Splice(n, repls...), true, nil
	})
}

// insertionPoint picks where new import statements go: after the last
// import of the leading import block, after a module docstring, or before
// the first statement. A nil anchor means the module is empty.
func insertionPoint(f *cst.File) (anchor *sitter.Node, after bool) {
	stmts := f.Statements()
	if len(stmts) == 0 {
		return nil, false
	}
	i := 0
	var docstring *sitter.Node
	if isDocstring(stmts[0]) {
		docstring = stmts[0]
		i = 1
	}
	var last *sitter.Node
scan:
	for ; i < len(stmts); i++ {
		switch stmts[i].Type() {
		case "import_statement", "import_from_statement", "future_import_statement":
			last = stmts[i]
		default:
			break scan
		}
	}
	switch {
	case last != nil:
		return last, true
	case docstring != nil:
		return docstring, true
	}
	return stmts[0], false
}

func isDocstring(stmt *sitter.Node) bool {
	if stmt.Type() != "expression_statement" {
		return false
	}
	kids := cst.NamedChildren(stmt)
	return len(kids) == 1 && cst.IsString(kids[0])
}

// mergeInto appends names after the last name imported by stmt. Inside a
// parenthesised import spread over lines each name gets its own line at the
// indentation of the last one; otherwise names are joined with ", ".
func mergeInto(f *cst.File, stmt *sitter.Node, names []string) string {
	text := f.Text(stmt)
	last := lastImported(stmt)
	if last == nil {
		return text
	}
	base := stmt.StartByte()
	end := int(last.EndByte() - base)

	// Find a trailing comma and the end of the last name's line, stopping
	// at the closing parenthesis.
	i := end
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	comma := i < len(text) && text[i] == ','
	eol := -1
	for j := i; j < len(text); j++ {
		switch text[j] {
		case '#':
			for j < len(text) && text[j] != '\n' {
				j++
			}
			eol = j
		case '\n':
			eol = j
		case ')':
		default:
			continue
		}
		break
	}
	if eol < 0 || !strings.Contains(text[:end], "(") {
		return text[:end] + ", " + strings.Join(names, ", ") + text[end:]
	}

	indent := lineIndent(f.Bytes(), int(last.StartByte()))
	if indent == "" {
		indent = "    "
	}
	var b strings.Builder
	for k, name := range names {
		b.WriteString("\n" + indent + name)
		if comma || k < len(names)-1 {
			b.WriteByte(',')
		}
	}
	if comma {
		return text[:eol] + b.String() + text[eol:]
	}
	return text[:end] + "," + text[end:eol] + b.String() + text[eol:]
}

func lastImported(stmt *sitter.Node) *sitter.Node {
	mod := stmt.ChildByFieldName("module_name")
	var last *sitter.Node
	for _, c := range cst.NamedChildren(stmt) {
		if cst.Same(c, mod) {
			continue
		}
		switch c.Type() {
		case "dotted_name", "aliased_import":
			last = c
		}
	}
	return last
}

// lineIndent returns the leading whitespace of the line holding offset.
func lineIndent(src []byte, offset int) string {
	start := offset
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	end := start
	for end < offset && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return string(src[start:end])
}

func mergedText(merged map[*sitter.Node]string, n *sitter.Node) (string, bool) {
	for node, text := range merged {
		if cst.Same(node, n) {
			return text, true
		}
	}
	return "", false
}

func normalizeAlias(f *cst.File, n *sitter.Node) string {
	name := n.ChildByFieldName("name")
	alias := n.ChildByFieldName("alias")
	if name == nil || alias == nil {
		return f.Text(n)
	}
	return f.Text(name) + " as " + f.Text(alias)
}
