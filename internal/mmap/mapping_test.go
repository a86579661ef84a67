package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.csr")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	m, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, 10, m.Size())
	assert.Equal(t, "0123456789", string(m.Bytes()))
	require.NoError(t, m.Advise(AccessRandom))

	buf := make([]byte, 4)
	n, err := m.ReadAt(buf, 8)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "89", string(buf[:n]))

	_, err = m.ReadAt(buf, -1)
	assert.ErrorIs(t, err, ErrInvalidOffset)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Nil(t, m.Bytes())
	assert.ErrorIs(t, m.Advise(AccessSequential), ErrClosed)
}

func TestMapping_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wht")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	m, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Size())
	assert.NoError(t, m.Advise(AccessRandom))
	assert.NoError(t, m.Close())
}
