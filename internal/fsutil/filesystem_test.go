package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileSystem_ReadWrite(t *testing.T) {
	t.Parallel()

	fs := NewMemoryFileSystem()

	require.NoError(t, fs.WriteFile("a/b.json", []byte("hello"), 0o644))
	data, err := fs.ReadFile("a/b.json")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	// Reads return copies: mutating the result must not corrupt the store.
	data[0] = 'X'
	again, err := fs.ReadFile("a/b.json")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(again))

	_, err = fs.ReadFile("missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMemoryFileSystem_Rename(t *testing.T) {
	t.Parallel()

	fs := NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("x.tmp", []byte("v2"), 0o644))
	require.NoError(t, fs.WriteFile("x", []byte("v1"), 0o644))

	require.NoError(t, fs.Rename("x.tmp", "x"))
	data, err := fs.ReadFile("x")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data), "rename replaces the target")
	assert.False(t, fs.Exists("x.tmp"))

	err = fs.Rename("ghost", "anywhere")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMemoryFileSystem_RemoveAndExists(t *testing.T) {
	t.Parallel()

	fs := NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("f", nil, 0o644))
	assert.True(t, fs.Exists("f"))

	require.NoError(t, fs.Remove("f"))
	assert.False(t, fs.Exists("f"))
	assert.ErrorIs(t, fs.Remove("f"), os.ErrNotExist)
}

func TestMemoryFileSystem_MkdirAll(t *testing.T) {
	t.Parallel()

	fs := NewMemoryFileSystem()
	require.NoError(t, fs.MkdirAll("a/b/c", 0o755))
	assert.True(t, fs.Exists("a/b/c"))
	assert.True(t, fs.Exists("a/b"))
	assert.True(t, fs.Exists("a"))
}

func TestMemoryFileSystem_Helpers(t *testing.T) {
	t.Parallel()

	fs := NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("m/c1.json", nil, 0o644))
	require.NoError(t, fs.WriteFile("m/c2.json.tmp", nil, 0o644))

	assert.ElementsMatch(t, []string{"m/c1.json", "m/c2.json.tmp"}, fs.Files())
	assert.True(t, fs.HasSuffixFile(".tmp"))
	require.NoError(t, fs.Remove("m/c2.json.tmp"))
	assert.False(t, fs.HasSuffixFile(".tmp"))
}

func TestOSFileSystem_RoundTrip(t *testing.T) {
	t.Parallel()

	fs := OSFileSystem{}
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "f.json")

	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, fs.WriteFile(path, []byte("data"), 0o644))
	assert.True(t, fs.Exists(path))

	data, err := fs.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	moved := filepath.Join(dir, "sub", "g.json")
	require.NoError(t, fs.Rename(path, moved))
	assert.False(t, fs.Exists(path))
	assert.True(t, fs.Exists(moved))

	require.NoError(t, fs.Remove(moved))
	assert.False(t, fs.Exists(moved))
}
