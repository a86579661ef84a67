package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "graph.meta")

	require.NoError(t, WriteFileAtomic(Default, name, []byte("hello"), 0o644))

	got, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	_, err = os.Stat(name + ".tmp")
	assert.True(t, errors.Is(err, os.ErrNotExist), "temporary file must be renamed away")

	entries, err := Default.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFaultyFS(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule(".walk", Fault{FailAfterBytes: 4})
	ffs.AddRule(".sync", Fault{FailAfterBytes: -1, FailOnSync: true})
	ffs.AddRule(".open", Fault{FailOnOpen: true})

	t.Run("write limit", func(t *testing.T) {
		err := WriteFile(ffs, filepath.Join(dir, "0.walk"), []byte("too long"), 0o644)
		assert.ErrorIs(t, err, ErrInjected)
	})

	t.Run("sync", func(t *testing.T) {
		err := WriteFile(ffs, filepath.Join(dir, "x.sync"), []byte("a"), 0o644)
		assert.ErrorIs(t, err, ErrInjected)
	})

	t.Run("open", func(t *testing.T) {
		_, err := ffs.OpenFile(filepath.Join(dir, "x.open"), os.O_CREATE|os.O_WRONLY, 0o644)
		assert.ErrorIs(t, err, ErrInjected)
	})

	t.Run("unmatched passes through", func(t *testing.T) {
		require.NoError(t, WriteFile(ffs, filepath.Join(dir, "ok.bin"), []byte("fine"), 0o644))
	})
}
