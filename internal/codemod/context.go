// Package codemod holds the machinery shared by the rewrite rules: the
// per-file context, argument reshaping, definition-name extraction,
// decorator matching, rename propagation and import synthesis.
package codemod

import (
	"sort"

	"github.com/go-logr/logr"
)

// Context is the state one transform accumulates while processing a single
// file. It is created fresh for every file and never shared.
type Context struct {
	Path string
	Log  logr.Logger

	renames   map[string]string
	withdrawn map[string]bool
	imports   map[string]map[string]struct{}
	receivers map[string]Policy
}

// NewContext returns an empty context for the file at path.
func NewContext(path string, log logr.Logger) *Context {
	return &Context{
		Path:      path,
		Log:       log.WithValues("file", path),
		renames:   make(map[string]string),
		withdrawn: make(map[string]bool),
		imports:   make(map[string]map[string]struct{}),
		receivers: make(map[string]Policy),
	}
}

// Rename stakes a file-wide rename of the identifier old. Renames are keyed
// by name only, so a name once withdrawn with Unrename stays unrenamed for
// the rest of the file even when another definition of it converts.
func (c *Context) Rename(old, new string) {
	if old == "" || old == new || c.withdrawn[old] {
		return
	}
	c.renames[old] = new
	c.Log.V(1).Info("staged rename", "from", old, "to", new)
}

// Unrename withdraws a rename staked for old, if any, and refuses later
// ones.
func (c *Context) Unrename(old string) {
	c.withdrawn[old] = true
	if _, ok := c.renames[old]; ok {
		delete(c.renames, old)
		c.Log.V(1).Info("withdrew rename", "from", old)
	}
}

// Renames returns a copy of the staged renames.
func (c *Context) Renames() map[string]string {
	out := make(map[string]string, len(c.renames))
	for k, v := range c.renames {
		out[k] = v
	}
	return out
}

// RenameAttributes applies p to every attribute accessed on the bare name
// receiver, e.g. context.solid_config.
func (c *Context) RenameAttributes(receiver string, p Policy) {
	c.receivers[receiver] = p
}

// Require records that symbol must be importable from module.
func (c *Context) Require(module string, symbols ...string) {
	set, ok := c.imports[module]
	if !ok {
		set = make(map[string]struct{})
		c.imports[module] = set
	}
	for _, s := range symbols {
		if s != "" {
			set[s] = struct{}{}
		}
	}
}

// ImportRequest lists the symbols needed from one module.
type ImportRequest struct {
	Module  string
	Symbols []string
}

// Required returns the pending imports sorted by module and symbol.
func (c *Context) Required() []ImportRequest {
	var out []ImportRequest
	for mod, set := range c.imports {
		if len(set) == 0 {
			continue
		}
		req := ImportRequest{Module: mod}
		for s := range set {
			req.Symbols = append(req.Symbols, s)
		}
		sort.Strings(req.Symbols)
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Module < out[j].Module })
	return out
}
