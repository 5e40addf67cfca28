package scan

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/scanviz/internal/fsutil"
)

func TestDiscoverLatest(t *testing.T) {
	m := fsutil.NewMemoryFileSystem()
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	files := map[string]time.Time{
		"scans/point_cloud_categorized_001.txt": base,
		"scans/point_cloud_categorized_002.txt": base.Add(2 * time.Hour),
		"scans/point_cloud_categorized_003.txt": base.Add(time.Hour),
		"scans/notes.md":                        base.Add(3 * time.Hour),
	}
	for name, at := range files {
		require.NoError(t, m.WriteFile(name, []byte("0 0 0 floor\n"), 0644))
		require.NoError(t, m.SetModTime(name, at))
	}

	got, err := DiscoverLatest(m, "scans", DefaultPattern)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("scans", "point_cloud_categorized_002.txt"), got)
}

func TestDiscoverLatestSkipsDirectories(t *testing.T) {
	m := fsutil.NewMemoryFileSystem()
	require.NoError(t, m.MkdirAll("scans/point_cloud_categorized_old.txt", 0755))
	require.NoError(t, m.WriteFile("scans/point_cloud_categorized_new.txt", []byte("0 0 0 floor\n"), 0644))

	got, err := DiscoverLatest(m, "scans", DefaultPattern)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("scans", "point_cloud_categorized_new.txt"), got)
}

func TestDiscoverLatestNoMatches(t *testing.T) {
	m := fsutil.NewMemoryFileSystem()
	require.NoError(t, m.WriteFile("scans/other.csv", []byte("x"), 0644))

	_, err := DiscoverLatest(m, "scans", DefaultPattern)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoScans))
}

func TestDiscoverLatestMissingDir(t *testing.T) {
	m := fsutil.NewMemoryFileSystem()

	_, err := DiscoverLatest(m, "nowhere", DefaultPattern)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nowhere")
}

func TestDiscoverLatestBadPattern(t *testing.T) {
	m := fsutil.NewMemoryFileSystem()
	require.NoError(t, m.WriteFile("scans/a.txt", []byte("x"), 0644))

	_, err := DiscoverLatest(m, "scans", "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pattern")
}
