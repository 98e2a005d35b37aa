package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
jobs    = 4
journal = ".codemod/journal.db"
exclude = ["build/**", "*_pb2.py"]

rule "legacy-imports" {
  imported = ["pipeline", "PipelineDefinition"]
}

rule "switch-invocation-args" {
  symbol       = "ScheduleDefinition"
  orig_arg     = "foo"
  orig_arg_pos = 2
}
`

func TestParse(t *testing.T) {
	c, err := Parse("codemod.hcl", []byte(sample))
	require.NoError(t, err)
	assert.Equal(t, 4, c.Jobs)
	assert.Equal(t, ".codemod/journal.db", c.Journal)
	assert.Equal(t, []string{"build/**", "*_pb2.py"}, c.Exclude)
	require.Len(t, c.Rules, 2)

	args, err := c.RuleArgs("legacy-imports")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"imported": "pipeline,PipelineDefinition"}, args)

	args, err = c.RuleArgs("switch-invocation-args")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"symbol":       "ScheduleDefinition",
		"orig_arg":     "foo",
		"orig_arg_pos": "2",
	}, args)

	args, err = c.RuleArgs("solid-to-op")
	require.NoError(t, err)
	assert.Empty(t, args)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", `jobs = `, "decode"},
		{"unknown attribute", `color = "red"`, "decode"},
		{"duplicate rule", "rule \"io-defs\" {}\nrule \"io-defs\" {}\n", "configured twice"},
		{"negative jobs", `jobs = -1`, "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("codemod.hcl", []byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRuleArgs_RejectsFractions(t *testing.T) {
	c, err := Parse("codemod.hcl", []byte("rule \"x\" {\n  orig_arg_pos = 1.5\n}\n"))
	require.NoError(t, err)
	_, err = c.RuleArgs("x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an integer")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "codemod.hcl")

	c, err := Load(missing, false)
	require.NoError(t, err)
	assert.Equal(t, &Config{}, c)

	_, err = Load(missing, true)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(missing, []byte(sample), 0o644))
	c, err = Load(missing, true)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Jobs)
}
