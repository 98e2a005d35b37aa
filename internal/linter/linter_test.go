package linter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLint(t *testing.T) {
	src := `from dagster import In, solid, pipeline as legacy_pipeline

@solid(input_defs=[InputDefinition("a")])
def the_solid(a):
    return a

@legacy_pipeline
def the_pipeline():
    the_solid()

execute_pipeline(the_pipeline)
handler = solid
`
	diags, err := Lint(context.Background(), "jobs.py", []byte(src))
	require.NoError(t, err)

	var got []string
	for _, d := range diags {
		got = append(got, d.String())
	}
	assert.Equal(t, []string{
		"jobs.py:1:25: legacy solid (migrate with solid-to-op)",
		"jobs.py:1:32: legacy pipeline (migrate with pipeline-to-job)",
		"jobs.py:3:2: legacy solid (migrate with solid-to-op)",
		"jobs.py:3:20: legacy InputDefinition (migrate with io-defs)",
		"jobs.py:11:1: legacy execute_pipeline (migrate with execute-pipeline)",
	}, got)

	assert.Equal(t, map[string]int{
		"solid-to-op":      2,
		"pipeline-to-job":  1,
		"io-defs":          1,
		"execute-pipeline": 1,
	}, Counts(diags))
}

func TestLint_Migrated(t *testing.T) {
	src := "from dagster import In, op\n\n@op(ins={\"a\": In()})\ndef the_op(a):\n    return a\n"
	diags, err := Lint(context.Background(), "jobs.py", []byte(src))
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestLint_QualifiedNamesIgnored(t *testing.T) {
	diags, err := Lint(context.Background(), "jobs.py", []byte("@dagster.solid\ndef f():\n    pass\n"))
	require.NoError(t, err)
	assert.Empty(t, diags)
}
