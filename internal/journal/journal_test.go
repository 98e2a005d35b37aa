package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	j.now = func() time.Time { return time.Unix(1700000000, 0) }
	return j
}

func TestJournal_RecordAndDone(t *testing.T) {
	ctx := context.Background()
	j := open(t)
	content := []byte("@op\ndef a():\n    pass\n")

	done, err := j.Done(ctx, "a.py", "solid-to-op", content)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, j.Record(ctx, "a.py", "solid-to-op", content))

	done, err = j.Done(ctx, "a.py", "solid-to-op", content)
	require.NoError(t, err)
	assert.True(t, done)

	done, err = j.Done(ctx, "a.py", "pipeline-to-job", content)
	require.NoError(t, err)
	assert.False(t, done, "entries are per rule")

	done, err = j.Done(ctx, "a.py", "solid-to-op", []byte("@solid\ndef a():\n    pass\n"))
	require.NoError(t, err)
	assert.False(t, done, "edited file must be migrated again")
}

func TestJournal_RecordUpserts(t *testing.T) {
	ctx := context.Background()
	j := open(t)
	require.NoError(t, j.Record(ctx, "a.py", "io-defs", []byte("one")))
	require.NoError(t, j.Record(ctx, "a.py", "io-defs", []byte("two")))
	require.NoError(t, j.Record(ctx, "b.py", "execute-pipeline", []byte("x")))

	entries, err := j.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b.py", entries[0].Path)
	assert.Equal(t, "execute-pipeline", entries[0].Rule)
	assert.Equal(t, Hash([]byte("two")), entries[1].Hash)
	assert.Equal(t, int64(1700000000), entries[1].MigratedAt.Unix())
}

func TestJournal_Forget(t *testing.T) {
	ctx := context.Background()
	j := open(t)
	require.NoError(t, j.Record(ctx, "a.py", "io-defs", []byte("x")))
	require.NoError(t, j.Record(ctx, "a.py", "solid-to-op", []byte("x")))

	require.NoError(t, j.Forget(ctx, "io-defs"))
	entries, err := j.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "solid-to-op", entries[0].Rule)

	require.NoError(t, j.Forget(ctx, ""))
	entries, err = j.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestJournal_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(ctx, "a.py", "io-defs", []byte("x")))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = j.Close() }()
	done, err := j.Done(ctx, "a.py", "io-defs", []byte("x"))
	require.NoError(t, err)
	assert.True(t, done)
}
