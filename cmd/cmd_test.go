package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/codemods/internal/codemod"
)

const legacySource = `from dagster import pipeline, solid

@solid
def the_solid():
    pass

@pipeline
def the_pipeline():
    the_solid()
`

// project writes files under a temp dir and returns it.
func project(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	flags := []string{"--root", dir}
	if cfg := filepath.Join(dir, "codemod.hcl"); fileExists(cfg) {
		flags = append(flags, "--config", cfg)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return out.String(), err
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(b)
}

func TestRun_SolidToOp(t *testing.T) {
	dir := project(t, map[string]string{"codemod.hcl": "", "jobs/a.py": legacySource})

	out, err := execute(t, dir, "run", "solid-to-op")
	require.NoError(t, err)
	assert.Contains(t, out, "solid-to-op: migrated 1 of 1 files")
	assert.Equal(t, `from dagster import pipeline, solid, op

@op
def the_op():
    pass

@pipeline
def the_pipeline():
    the_op()
`, readFile(t, dir, "jobs/a.py"))
}

func TestRun_DryRunDiff(t *testing.T) {
	dir := project(t, map[string]string{"codemod.hcl": "", "a.py": legacySource})

	out, err := execute(t, dir, "run", "pipeline-to-job", "--dry-run", "--diff", "a.py")
	require.NoError(t, err)
	assert.Contains(t, out, "--- a/a.py")
	assert.Contains(t, out, "+@job")
	assert.Equal(t, legacySource, readFile(t, dir, "a.py"))
}

func TestRun_ParamsFromFlagsAndConfig(t *testing.T) {
	dir := project(t, map[string]string{
		"codemod.hcl": "rule \"switch-invocation-args\" {\n  symbol = \"the_func\"\n  orig_arg = \"foo\"\n  orig_arg_pos = 2\n}\n",
		"a.py":        "the_func(a, b, foo=bar)\n",
	})

	_, err := execute(t, dir, "run", "switch-invocation-args", "--replace-arg", "baz")
	require.NoError(t, err)
	assert.Equal(t, "the_func(a, b, baz=bar)\n", readFile(t, dir, "a.py"))

	_, err = execute(t, dir, "run", "legacy-imports")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required parameter imported")
}

func TestRun_JSONQuery(t *testing.T) {
	dir := project(t, map[string]string{"codemod.hcl": "", "a.py": legacySource, "b.py": "x = 1\n"})

	out, err := execute(t, dir, "run", "solid-to-op", "-n", "--query", "$.files[?(@.status == 'changed')].path")
	require.NoError(t, err)
	assert.Equal(t, "a.py\n", out)

	_, err = execute(t, dir, "run", "solid-to-op", "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, legacySource, readFile(t, dir, "a.py"), "bad format must not write")
}

func TestRun_FailureExitsNonZero(t *testing.T) {
	dir := project(t, map[string]string{"codemod.hcl": "", "a.py": legacySource, "bad.py": "def f(:\n"})

	out, err := execute(t, dir, "run", "solid-to-op")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")
	assert.ErrorIs(t, err, codemod.ErrSyntax)
	assert.Contains(t, err.Error(), "bad.py:1:")
	assert.Contains(t, out, "bad.py")
	assert.Contains(t, readFile(t, dir, "a.py"), "@op")
}

func TestRun_Journal(t *testing.T) {
	dir := project(t, map[string]string{"codemod.hcl": "journal = \"" + filepath.ToSlash(filepath.Join(t.TempDir(), "j.db")) + "\"\n", "a.py": legacySource})

	_, err := execute(t, dir, "run", "solid-to-op")
	require.NoError(t, err)
	out, err := execute(t, dir, "run", "solid-to-op")
	require.NoError(t, err)
	assert.Contains(t, out, "(1 skipped, 0 failed)")

	out, err = execute(t, dir, "journal")
	require.NoError(t, err)
	assert.Contains(t, out, "solid-to-op")
	assert.Contains(t, out, "a.py")

	_, err = execute(t, dir, "journal", "--forget-all")
	require.NoError(t, err)
	out, err = execute(t, dir, "journal")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCheck(t *testing.T) {
	dir := project(t, map[string]string{"codemod.hcl": "", "a.py": legacySource, "b.py": "x = 1\n"})

	out, err := execute(t, dir, "check")
	require.Error(t, err)
	assert.Contains(t, out, "a.py:3:2: legacy solid (migrate with solid-to-op)")
	assert.Contains(t, out, "pipeline-to-job: 2")
	assert.Contains(t, out, "solid-to-op: 2")

	_, err = execute(t, dir, "check", "b.py")
	assert.NoError(t, err)
}

func TestCheck_ReportsEverySyntaxError(t *testing.T) {
	dir := project(t, map[string]string{"codemod.hcl": "", "bad.py": "def f(:\n    pass\n\n\ndef g(:\n    pass\n", "b.py": "x = 1\n"})

	out, err := execute(t, dir, "check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files have syntax errors")
	assert.Contains(t, out, "bad.py:1:")
	assert.Contains(t, out, "bad.py:5:")
	assert.NotContains(t, out, "b.py:")
}

func TestList(t *testing.T) {
	out, err := execute(t, t.TempDir(), "list")
	require.NoError(t, err)
	for _, name := range []string{"solid-to-op", "legacy-imports", "--orig-arg-pos"} {
		assert.Contains(t, out, name)
	}
}

func TestConfig_ExplicitMissingFileFails(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.hcl"), "list"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}
