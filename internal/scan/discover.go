package scan

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/banshee-data/scanviz/internal/fsutil"
)

// DefaultPattern matches the capture files the simulation environment writes.
const DefaultPattern = "point_cloud_categorized*.txt"

// ErrNoScans reports a discovery directory with no matching capture files.
var ErrNoScans = errors.New("no matching capture files")

// DiscoverLatest returns the path of the most recently modified regular
// file in dir whose name matches the glob pattern.
func DiscoverLatest(fsys fsutil.FileSystem, dir, pattern string) (string, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read capture directory %q: %w", dir, err)
	}

	var (
		latest   string
		latestAt time.Time
	)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, err := filepath.Match(pattern, e.Name())
		if err != nil {
			return "", fmt.Errorf("bad capture pattern %q: %w", pattern, err)
		}
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestAt) {
			latest = e.Name()
			latestAt = info.ModTime()
		}
	}

	if latest == "" {
		return "", fmt.Errorf("%w in %q for pattern %q", ErrNoScans, dir, pattern)
	}
	return filepath.Join(dir, latest), nil
}
