package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileSystemReadWrite(t *testing.T) {
	m := NewMemoryFileSystem()

	require.NoError(t, m.WriteFile("scans/latest.txt", []byte("1 2 3 wall\n"), 0644))

	data, err := m.ReadFile("scans/latest.txt")
	require.NoError(t, err)
	assert.Equal(t, "1 2 3 wall\n", string(data))

	f, err := m.Open("scans/latest.txt")
	require.NoError(t, err)
	defer f.Close()

	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "1 2 3 wall\n", string(got))
}

func TestMemoryFileSystemOpenMissing(t *testing.T) {
	m := NewMemoryFileSystem()

	_, err := m.Open("nope.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestMemoryFileSystemCreate(t *testing.T) {
	m := NewMemoryFileSystem()

	w, err := m.Create("out/chart.html")
	require.NoError(t, err)
	_, err = w.Write([]byte("<html></html>"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := m.ReadFile("out/chart.html")
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))
	assert.True(t, m.Exists("out"))
}

func TestMemoryFileSystemReadDir(t *testing.T) {
	m := NewMemoryFileSystem()

	require.NoError(t, m.WriteFile("scans/b.txt", []byte("b"), 0644))
	require.NoError(t, m.WriteFile("scans/a.txt", []byte("a"), 0644))
	require.NoError(t, m.WriteFile("scans/sub/c.txt", []byte("c"), 0644))

	entries, err := m.ReadDir("scans")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Sorted by name; immediate children only.
	assert.Equal(t, "a.txt", entries[0].Name())
	assert.Equal(t, "b.txt", entries[1].Name())
	assert.Equal(t, "sub", entries[2].Name())
	assert.True(t, entries[2].IsDir())

	_, err = m.ReadDir("missing")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestMemoryFileSystemSetModTime(t *testing.T) {
	m := NewMemoryFileSystem()

	require.NoError(t, m.WriteFile("scan.txt", []byte("x"), 0644))
	want := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	require.NoError(t, m.SetModTime("scan.txt", want))

	info, err := m.Stat("scan.txt")
	require.NoError(t, err)
	assert.Equal(t, want, info.ModTime())

	err = m.SetModTime("missing.txt", want)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestOSFileSystem(t *testing.T) {
	osfs := OSFileSystem{}
	dir := t.TempDir()

	path := dir + "/scan.txt"
	require.NoError(t, osfs.WriteFile(path, []byte("0 0 0 floor\n"), 0644))
	assert.True(t, osfs.Exists(path))

	data, err := osfs.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0 0 0 floor\n", string(data))

	entries, err := osfs.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "scan.txt", entries[0].Name())
}
