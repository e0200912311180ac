package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystemAppendAndRead(t *testing.T) {
	t.Parallel()

	var fsys FileSystem = OSFileSystem{}
	name := filepath.Join(t.TempDir(), "cache.gpk")

	require.NoError(t, fsys.Append(name, []byte("abc")))
	require.NoError(t, fsys.Append(name, []byte("def")))

	info, err := fsys.Stat(name)
	require.NoError(t, err)
	assert.Equal(t, int64(6), info.Size())

	f, err := fsys.Open(name)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Seek(3, io.SeekStart)
	require.NoError(t, err)
	rest, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "def", string(rest))
}

func TestOSFileSystemOpenMissing(t *testing.T) {
	t.Parallel()

	_, err := OSFileSystem{}.Open(filepath.Join(t.TempDir(), "absent"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestMemoryFileSystemSnapshots(t *testing.T) {
	t.Parallel()

	m := NewMemoryFileSystem()
	require.NoError(t, m.Append("/cache/a", []byte("123")))

	f, err := m.Open("/cache/a")
	require.NoError(t, err)
	require.NoError(t, m.Append("/cache/a", []byte("456")))

	first, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "123", string(first))
	require.NoError(t, f.Close())

	g, err := m.Open("/cache/../cache/a")
	require.NoError(t, err)
	_, err = g.Seek(2, io.SeekStart)
	require.NoError(t, err)
	second, err := io.ReadAll(g)
	require.NoError(t, err)
	assert.Equal(t, "3456", string(second))

	info, err := m.Stat("/cache/a")
	require.NoError(t, err)
	assert.Equal(t, "a", info.Name())
	assert.Equal(t, int64(6), info.Size())
	assert.False(t, info.IsDir())
}

func TestMemoryFileSystemFailOpens(t *testing.T) {
	t.Parallel()

	m := NewMemoryFileSystem()
	require.NoError(t, m.Append("x", nil))
	m.FailOpens("x", 2)

	for i := 0; i < 2; i++ {
		_, err := m.Open("x")
		assert.ErrorIs(t, err, ErrLocked)
	}
	_, err := m.Open("x")
	assert.NoError(t, err)
	assert.Equal(t, 3, m.Opens("x"))

	_, err = m.Open("y")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = m.Stat("y")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
