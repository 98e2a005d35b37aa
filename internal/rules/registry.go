// Package rules implements the API migrations and the registry the command
// line and the MCP server build them from.
package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agentic-research/codemods/internal/codemod"
)

// Param declares one configuration value a rule accepts.
type Param struct {
	Name     string
	Type     string // "string", "int" or "list"
	Help     string
	Required bool
}

// Args carries rule parameters by name. List values are comma separated.
type Args map[string]string

// String returns the named value, or "".
func (a Args) String(name string) string {
	return strings.TrimSpace(a[name])
}

// Int parses the named value.
func (a Args) Int(name string) (int, error) {
	v := a.String(name)
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parameter %s: %q is not an integer", name, v)
	}
	return n, nil
}

// List splits the named value on commas, dropping empty items.
func (a Args) List(name string) []string {
	var out []string
	for _, item := range strings.Split(a[name], ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Spec describes a registered rule.
type Spec struct {
	Name        string
	Description string
	Params      []Param
	New         func(Args) (codemod.Rule, error)
}

// Build validates args against the declared params and constructs the rule.
func (s Spec) Build(args Args) (codemod.Rule, error) {
	for _, p := range s.Params {
		if p.Required && args.String(p.Name) == "" {
			return nil, fmt.Errorf("rule %s: missing required parameter %s", s.Name, p.Name)
		}
	}
	for name := range args {
		if !s.accepts(name) {
			return nil, fmt.Errorf("rule %s: unknown parameter %s", s.Name, name)
		}
	}
	return s.New(args)
}

func (s Spec) accepts(name string) bool {
	for _, p := range s.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}

var registry = map[string]Spec{}

func register(s Spec) {
	if _, dup := registry[s.Name]; dup {
		panic("rules: duplicate rule " + s.Name)
	}
	registry[s.Name] = s
}

// Lookup returns the rule registered under name.
func Lookup(name string) (Spec, bool) {
	s, ok := registry[name]
	return s, ok
}

// All returns every registered rule sorted by name.
func All() []Spec {
	out := make([]Spec, 0, len(registry))
	for _, s := range registry {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func static(r codemod.Rule) func(Args) (codemod.Rule, error) {
	return func(Args) (codemod.Rule, error) { return r, nil }
}

func init() {
	register(Spec{
		Name:        "switch-invocation-args",
		Description: (&SwitchInvocationArgs{}).Description(),
		Params: []Param{
			{Name: "symbol", Type: "string", Help: "Function/class being invoked", Required: true},
			{Name: "orig_arg", Type: "string", Help: "Original argument to change", Required: true},
			{Name: "orig_arg_pos", Type: "int", Help: "Position of original argument", Required: true},
			{Name: "replace_arg", Type: "string", Help: "Argument to change to; omit to delete the argument"},
		},
		New: newSwitchInvocationArgs,
	})
	register(Spec{Name: "io-defs", Description: IODefs{}.Description(), New: static(IODefs{})})
	register(Spec{Name: "solid-to-op", Description: SolidToOp{}.Description(), New: static(SolidToOp{})})
	register(Spec{Name: "composite-to-graph", Description: CompositeToGraph{}.Description(), New: static(CompositeToGraph{})})
	register(Spec{Name: "pipeline-to-job", Description: PipelineToJob{}.Description(), New: static(PipelineToJob{})})
	register(Spec{Name: "execute-pipeline", Description: ExecutePipeline{}.Description(), New: static(ExecutePipeline{})})
	register(Spec{
		Name:        "legacy-imports",
		Description: (&LegacyImports{}).Description(),
		Params: []Param{
			{Name: "imported", Type: "list", Help: "Imported symbols to move to dagster._legacy", Required: true},
		},
		New: newLegacyImports,
	})
}
