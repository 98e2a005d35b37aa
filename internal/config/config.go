// Package config loads the optional codemod.hcl file. A typical file:
//
//	jobs    = 8
//	journal = ".codemod/journal.db"
//	exclude = ["build/**", "*_pb2.py"]
//
//	rule "legacy-imports" {
//	  imported = ["pipeline", "PipelineDefinition"]
//	}
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"
)

// DefaultPath is loaded when no --config flag is given.
const DefaultPath = "codemod.hcl"

// Config is the decoded configuration file.
type Config struct {
	Jobs    int      `hcl:"jobs,optional"`
	Journal string   `hcl:"journal,optional"`
	Exclude []string `hcl:"exclude,optional"`
	Rules   []Rule   `hcl:"rule,block"`
}

// Rule holds the parameters configured for one rule.
type Rule struct {
	Name   string   `hcl:"name,label"`
	Params hcl.Body `hcl:",remain"`
}

// Load decodes the file at path. A missing file yields an empty Config
// unless required is set.
func Load(path string, required bool) (*Config, error) {
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, src)
}

// Parse decodes src. filename must end in .hcl.
func Parse(filename string, src []byte) (*Config, error) {
	var c Config
	if err := hclsimple.Decode(filename, src, nil, &c); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	seen := map[string]bool{}
	for _, r := range c.Rules {
		if seen[r.Name] {
			return nil, fmt.Errorf("%s: rule %q configured twice", filename, r.Name)
		}
		seen[r.Name] = true
	}
	if c.Jobs < 0 {
		return nil, fmt.Errorf("%s: jobs must not be negative", filename)
	}
	return &c, nil
}

// RuleArgs returns the parameters configured for the named rule, rendered
// as strings. Lists are joined with commas. A rule with no block yields an
// empty map.
func (c *Config) RuleArgs(name string) (map[string]string, error) {
	out := map[string]string{}
	for _, r := range c.Rules {
		if r.Name != name || r.Params == nil {
			continue
		}
		attrs, diags := r.Params.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("rule %q: %w", name, diags)
		}
		for key, attr := range attrs {
			v, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("rule %q: %w", name, diags)
			}
			s, err := render(v)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %s: %w", name, key, err)
			}
			out[key] = s
		}
	}
	return out, nil
}

func render(v cty.Value) (string, error) {
	if v.IsNull() || !v.IsKnown() {
		return "", fmt.Errorf("value is not set")
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if !bf.IsInt() {
			return "", fmt.Errorf("%s is not an integer", bf.Text('g', -1))
		}
		i, _ := bf.Int(new(big.Int))
		return i.String(), nil
	case ty == cty.Bool:
		if v.True() {
			return "true", nil
		}
		return "false", nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		var items []string
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			s, err := render(ev)
			if err != nil {
				return "", err
			}
			items = append(items, s)
		}
		return strings.Join(items, ","), nil
	default:
		return "", fmt.Errorf("unsupported type %s", ty.FriendlyName())
	}
}
