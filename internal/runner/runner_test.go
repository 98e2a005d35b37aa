package runner

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/ohler55/ojg/oj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/codemods/internal/codemod"
	"github.com/agentic-research/codemods/internal/journal"
	"github.com/agentic-research/codemods/internal/rules"
)

const legacySolid = "@solid\ndef a():\n    pass\n"
const migratedSolid = "from dagster import op\n\n@op\ndef a():\n    pass\n"

func tree(t *testing.T, files map[string]string) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	for name, content := range files {
		require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func read(t *testing.T, fs billy.Filesystem, name string) string {
	t.Helper()
	b, err := util.ReadFile(fs, name)
	require.NoError(t, err)
	return string(b)
}

func solidToOp(t *testing.T) codemod.Rule {
	t.Helper()
	spec, ok := rules.Lookup("solid-to-op")
	require.True(t, ok)
	r, err := spec.Build(nil)
	require.NoError(t, err)
	return r
}

func TestDiscover(t *testing.T) {
	fs := tree(t, map[string]string{
		"repo/a.py":                   "",
		"repo/pkg/b.py":               "",
		"repo/pkg/__pycache__/c.py":   "",
		"repo/build/d.py":             "",
		"repo/notes.txt":              "",
		"repo/pkg/e_pb2.py":           "",
		"repo/.venv/lib/site.py":      "",
		"other/explicit_not_walked.p": "",
	})
	got, err := Discover(fs, []string{"repo", "repo/a.py"}, []string{"repo/build/**", "*_pb2.py"})
	require.NoError(t, err)
	assert.Equal(t, []string{"repo/a.py", "repo/pkg/b.py"}, got)

	_, err = Discover(fs, []string{"missing"}, nil)
	assert.Error(t, err)
}

func TestExcluded(t *testing.T) {
	tests := []struct {
		path     string
		patterns []string
		want     bool
	}{
		{"build/x.py", []string{"build/**"}, true},
		{"build", []string{"build/**"}, true},
		{"builder/x.py", []string{"build/**"}, false},
		{"pkg/x_pb2.py", []string{"*_pb2.py"}, true},
		{"./pkg/x.py", []string{"pkg/*.py"}, true},
		{"pkg/x.py", nil, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Excluded(tt.path, tt.patterns), tt.path)
	}
}

func TestRun_WritesChanges(t *testing.T) {
	fs := tree(t, map[string]string{
		"repo/a.py": legacySolid,
		"repo/b.py": "x = 1\n",
	})
	report, err := Run(context.Background(), fs, []string{"repo"}, Options{Rule: solidToOp(t), Jobs: 2})
	require.NoError(t, err)
	require.NoError(t, report.Err())

	assert.Equal(t, migratedSolid, read(t, fs, "repo/a.py"))
	assert.Equal(t, "x = 1\n", read(t, fs, "repo/b.py"))
	assert.Equal(t, 1, report.Count(Changed))
	assert.Equal(t, 1, report.Count(Unchanged))
	assert.Equal(t, "repo/a.py", report.Results[0].Path)
}

func TestRun_DryRunWithDiff(t *testing.T) {
	fs := tree(t, map[string]string{"repo/a.py": legacySolid})
	report, err := Run(context.Background(), fs, []string{"repo"}, Options{Rule: solidToOp(t), DryRun: true, Diff: true})
	require.NoError(t, err)

	assert.Equal(t, legacySolid, read(t, fs, "repo/a.py"), "dry run must not write")
	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.Equal(t, Changed, res.Status)
	assert.Contains(t, res.Diff, "--- a/repo/a.py")
	assert.Contains(t, res.Diff, "-@solid\n")
	assert.Contains(t, res.Diff, "+@op\n")

	var buf bytes.Buffer
	require.NoError(t, report.WriteText(&buf))
	assert.Contains(t, buf.String(), "solid-to-op: would migrate 1 of 1 files")
}

func TestRun_FailureIsolated(t *testing.T) {
	fs := tree(t, map[string]string{
		"repo/a.py":   legacySolid,
		"repo/bad.py": "@solid\ndef broken(:\n",
	})
	report, err := Run(context.Background(), fs, []string{"repo"}, Options{Rule: solidToOp(t)})
	require.NoError(t, err)

	assert.Equal(t, migratedSolid, read(t, fs, "repo/a.py"))
	assert.Equal(t, "@solid\ndef broken(:\n", read(t, fs, "repo/bad.py"))
	assert.Equal(t, 1, report.Count(Failed))
	assert.ErrorIs(t, report.Err(), codemod.ErrSyntax)
}

func TestRun_JournalSkipsMigratedFiles(t *testing.T) {
	ctx := context.Background()
	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer func() { _ = j.Close() }()

	fs := tree(t, map[string]string{"repo/a.py": legacySolid, "repo/b.py": "x = 1\n"})
	opts := Options{Rule: solidToOp(t), Journal: j}

	report, err := Run(ctx, fs, []string{"repo"}, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(Changed))

	report, err = Run(ctx, fs, []string{"repo"}, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count(Skipped))

	require.NoError(t, util.WriteFile(fs, "repo/b.py", []byte(legacySolid), 0o644))
	report, err = Run(ctx, fs, []string{"repo"}, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(Changed), "edited file is migrated again")
	assert.Equal(t, 1, report.Count(Skipped))
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fs := tree(t, map[string]string{"repo/a.py": legacySolid})
	_, err := Run(ctx, fs, []string{"repo"}, Options{Rule: solidToOp(t)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, legacySolid, read(t, fs, "repo/a.py"))
}

func TestReport_JSONAndQuery(t *testing.T) {
	fs := tree(t, map[string]string{"repo/a.py": legacySolid, "repo/b.py": "x = 1\n"})
	report, err := Run(context.Background(), fs, []string{"repo"}, Options{Rule: solidToOp(t), DryRun: true})
	require.NoError(t, err)

	v, err := oj.ParseString(report.JSON())
	require.NoError(t, err)
	data, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "solid-to-op", data["rule"])
	assert.Equal(t, true, data["dry_run"])
	assert.Equal(t, int64(1), data["summary"].(map[string]any)["changed"])

	paths, err := report.Query(`$.files[?(@.status == 'changed')].path`)
	require.NoError(t, err)
	assert.Equal(t, []any{"repo/a.py"}, paths)

	_, err = report.Query(`$.files[`)
	assert.Error(t, err)
}
