package scan

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/scanviz/internal/fsutil"
	"github.com/banshee-data/scanviz/internal/monitoring"
)

func muteWarnings(t *testing.T) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })
}

func TestParseSingleLine(t *testing.T) {
	res, err := Parse(strings.NewReader("1.0 2.0 3.0 wall\n"), Options{})
	require.NoError(t, err)

	require.Equal(t, []string{"wall"}, res.Record.Labels)
	require.Len(t, res.Record.Points["wall"], 1)
	assert.Equal(t, Point{X: 1.0, Y: 2.0, Z: 3.0}, res.Record.Points["wall"][0])
	assert.Equal(t, 1, res.PointCount)
	assert.Equal(t, 0, res.SkippedLines)
}

func TestParseBucketsByLabel(t *testing.T) {
	input := `
3.0 0.1 1.0 wall
1.0 0.0 2.0 table
3.1 0.2 1.1 wall
0.0 0.5 0.5 Table
`
	res, err := Parse(strings.NewReader(input), Options{})
	require.NoError(t, err)

	// Distinct labels equal distinct fourth tokens; labels are case-sensitive.
	assert.Equal(t, []string{"wall", "table", "Table"}, res.Record.Labels)
	assert.Len(t, res.Record.Points["wall"], 2)
	assert.Len(t, res.Record.Points["table"], 1)
	assert.Len(t, res.Record.Points["Table"], 1)

	// Point order within a label matches file order.
	want := []Point{{X: 3.0, Y: 0.1, Z: 1.0}, {X: 3.1, Y: 0.2, Z: 1.1}}
	if diff := cmp.Diff(want, res.Record.Points["wall"]); diff != "" {
		t.Errorf("wall points mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePoseHeaders(t *testing.T) {
	input := `# SCANNER_POS: 1.5 0.25 -2.0
# SCANNER_ROT: 0.785 -0.1
1.0 0.0 0.0 table
`
	res, err := Parse(strings.NewReader(input), Options{})
	require.NoError(t, err)

	assert.True(t, res.Pose.HasPosition)
	assert.True(t, res.Pose.HasRotation)
	assert.Equal(t, Point{X: 1.5, Y: 0.25, Z: -2.0}, res.Pose.Position)
	assert.InDelta(t, 0.785, res.Pose.Yaw, 1e-12)
	assert.InDelta(t, -0.1, res.Pose.Pitch, 1e-12)
}

func TestParsePoseLastWriteWins(t *testing.T) {
	input := `# SCANNER_POS: 1 1 1
# SCANNER_POS: 2 2 2
0 0 0 floor
`
	res, err := Parse(strings.NewReader(input), Options{})
	require.NoError(t, err)
	assert.Equal(t, Point{X: 2, Y: 2, Z: 2}, res.Pose.Position)
}

func TestParseDefaultPose(t *testing.T) {
	res, err := Parse(strings.NewReader("0 1 0 ceiling\n"), Options{})
	require.NoError(t, err)

	assert.False(t, res.Pose.HasPosition)
	assert.False(t, res.Pose.HasRotation)
	assert.Equal(t, Point{}, res.Pose.Position)
}

func TestParseScannerRelative(t *testing.T) {
	input := `# SCANNER_POS: 1 0 0
1.0 0.0 0.0 table
`
	res, err := Parse(strings.NewReader(input), Options{ScannerRelative: true})
	require.NoError(t, err)
	assert.Equal(t, Point{X: 0, Y: 0, Z: 0}, res.Record.Points["table"][0])
}

func TestTranslateRoundTrip(t *testing.T) {
	res, err := Parse(strings.NewReader("1.25 -2.5 3.75 wall\n4 5 6 wall\n"), Options{})
	require.NoError(t, err)

	want := make([]Point, len(res.Record.Points["wall"]))
	copy(want, res.Record.Points["wall"])

	d := Point{X: 1.5, Y: -0.25, Z: 9.0}
	res.Record.Translate(d)
	res.Record.Translate(d.Neg())

	if diff := cmp.Diff(want, res.Record.Points["wall"]); diff != "" {
		t.Errorf("translate round trip not identity (-want +got):\n%s", diff)
	}
}

func TestParseSkipsCommentsAndBlanks(t *testing.T) {
	input := `
# captured by sim build 1842

1 2 3 wall
# trailing comment
`
	res, err := Parse(strings.NewReader(input), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.PointCount)
	assert.Equal(t, 0, res.SkippedLines)
}

func TestParseNoData(t *testing.T) {
	input := `# SCANNER_POS: 1 2 3
# SCANNER_ROT: 0 0
`
	_, err := Parse(strings.NewReader(input), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestParseEmptyInput(t *testing.T) {
	_, err := Parse(strings.NewReader(""), Options{})
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestParseTolerantSkipsMalformed(t *testing.T) {
	muteWarnings(t)

	tests := []struct {
		name string
		line string
	}{
		{"three tokens", "1.0 2.0 chair"},
		{"five tokens", "1.0 2.0 3.0 chair extra"},
		{"bad x", "one 2.0 3.0 chair"},
		{"bad y", "1.0 two 3.0 chair"},
		{"bad z", "1.0 2.0 three chair"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.line + "\n4.0 5.0 6.0 wall\n"
			res, err := Parse(strings.NewReader(input), Options{})
			require.NoError(t, err)

			// The malformed line lands in no bucket; parsing continues.
			assert.Equal(t, 1, res.SkippedLines)
			assert.Equal(t, []string{"wall"}, res.Record.Labels)
			assert.NotContains(t, res.Record.Points, "chair")
			assert.Equal(t, 1, res.PointCount)
		})
	}
}

func TestParseTolerantWarns(t *testing.T) {
	original := monitoring.Logf
	defer func() { monitoring.Logf = original }()

	var warnings []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		warnings = append(warnings, format)
	})

	_, err := Parse(strings.NewReader("1.0 2.0 chair\n1 2 3 wall\n"), Options{})
	require.NoError(t, err)
	assert.Len(t, warnings, 1)
}

func TestParseStrictAborts(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"short data line", "1.0 2.0 chair\n1 2 3 wall\n"},
		{"bad number", "x 2.0 3.0 chair\n"},
		{"bad pos header", "# SCANNER_POS: 1 2\n1 2 3 wall\n"},
		{"bad rot header", "# SCANNER_ROT: a b\n1 2 3 wall\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input), Options{Strict: true})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "line 1")
		})
	}
}

func TestParseMalformedHeaderTolerated(t *testing.T) {
	muteWarnings(t)

	input := `# SCANNER_POS: 1 2
1 2 3 wall
`
	res, err := Parse(strings.NewReader(input), Options{})
	require.NoError(t, err)
	assert.False(t, res.Pose.HasPosition)
	assert.Equal(t, 1, res.SkippedLines)
	assert.Equal(t, 1, res.PointCount)
}

func TestParseIgnorePoseHeaders(t *testing.T) {
	input := `# SCANNER_POS: 1 0 0
1.0 0.0 0.0 table
`
	res, err := Parse(strings.NewReader(input), Options{IgnorePoseHeaders: true, ScannerRelative: true})
	require.NoError(t, err)

	assert.False(t, res.Pose.HasPosition)
	// Without a parsed pose there is nothing to subtract.
	assert.Equal(t, Point{X: 1, Y: 0, Z: 0}, res.Record.Points["table"][0])
}

func TestParseFile(t *testing.T) {
	m := fsutil.NewMemoryFileSystem()
	require.NoError(t, m.WriteFile("scans/cloud.txt", []byte("1 2 3 wall\n"), 0644))

	res, err := ParseFile(m, "scans/cloud.txt", Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.PointCount)
}

func TestParseFileNotFound(t *testing.T) {
	m := fsutil.NewMemoryFileSystem()

	_, err := ParseFile(m, "scans/missing.txt", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scans/missing.txt")
}

func TestParseFileNoData(t *testing.T) {
	m := fsutil.NewMemoryFileSystem()
	require.NoError(t, m.WriteFile("scans/empty.txt", []byte("# nothing here\n"), 0644))

	_, err := ParseFile(m, "scans/empty.txt", Options{})
	assert.True(t, errors.Is(err, ErrNoData))
}
