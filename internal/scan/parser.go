package scan

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"github.com/banshee-data/scanviz/internal/fsutil"
	"github.com/banshee-data/scanviz/internal/monitoring"
)

// Pose headers recognized ahead of the generic comment rule.
const (
	posHeader = "# SCANNER_POS:"
	rotHeader = "# SCANNER_ROT:"
)

// ErrNoData reports a capture with no valid data lines. It is distinct
// from parse and I/O failures: there is nothing to render, so callers
// should report and stop rather than treat it as a malformed file.
var ErrNoData = errors.New("no valid data lines in capture")

// Options controls parsing behaviour. The zero value parses pose
// headers, keeps sensor-frame coordinates and skips malformed lines
// with a warning.
type Options struct {
	// IgnorePoseHeaders treats SCANNER_POS / SCANNER_ROT lines as
	// plain comments.
	IgnorePoseHeaders bool

	// ScannerRelative translates every point by the negated scanner
	// position after parsing completes.
	ScannerRelative bool

	// Strict aborts the parse on the first malformed line instead of
	// skipping it.
	Strict bool
}

// Parse reads a capture line by line and buckets samples by label.
//
// Pose headers may occur anywhere; the last occurrence of each wins.
// Blank lines and other # comments are ignored. Every remaining line
// must split into exactly four whitespace-separated tokens: three
// floats and a non-empty label. Well-formed lines are never dropped,
// and per-label point order matches file order.
func Parse(r io.Reader, opts Options) (*Result, error) {
	res := &Result{Record: NewRecord()}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		res.LinesRead++
		line := strings.TrimSpace(sc.Text())

		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			if opts.IgnorePoseHeaders {
				continue
			}
			var err error
			switch {
			case strings.HasPrefix(line, posHeader):
				err = parsePosition(strings.TrimPrefix(line, posHeader), &res.Pose)
			case strings.HasPrefix(line, rotHeader):
				err = parseRotation(strings.TrimPrefix(line, rotHeader), &res.Pose)
			}
			if err != nil {
				if opts.Strict {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				res.SkippedLines++
				monitoring.Logf("skipping line %d: %v", lineNo, err)
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 4 {
			if opts.Strict {
				return nil, fmt.Errorf("line %d: expected 4 fields, got %d: %q", lineNo, len(fields), line)
			}
			res.SkippedLines++
			monitoring.Logf("skipping line %d: expected 4 fields, got %d: %q", lineNo, len(fields), line)
			continue
		}

		p, err := parsePoint(fields[0], fields[1], fields[2])
		if err != nil {
			if opts.Strict {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			res.SkippedLines++
			monitoring.Logf("skipping line %d: %v", lineNo, err)
			continue
		}

		res.Record.Add(fields[3], p)
		res.PointCount++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read capture: %w", err)
	}

	if res.PointCount == 0 {
		return nil, ErrNoData
	}

	if opts.ScannerRelative && res.Pose.HasPosition {
		res.Record.Translate(res.Pose.Position.Neg())
	}

	return res, nil
}

// ParseFile opens path on the given filesystem and parses it. The file
// handle is released whether or not parsing succeeds.
func ParseFile(fsys fsutil.FileSystem, path string, opts Options) (*Result, error) {
	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("capture file not found at %q: %w", path, err)
		}
		return nil, fmt.Errorf("open capture %q: %w", path, err)
	}
	defer f.Close()

	res, err := Parse(f, opts)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", path, err)
	}
	return res, nil
}

func parsePoint(xs, ys, zs string) (Point, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return Point{}, fmt.Errorf("bad x coordinate %q", xs)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return Point{}, fmt.Errorf("bad y coordinate %q", ys)
	}
	z, err := strconv.ParseFloat(zs, 64)
	if err != nil {
		return Point{}, fmt.Errorf("bad z coordinate %q", zs)
	}
	return Point{X: x, Y: y, Z: z}, nil
}

func parsePosition(rest string, pose *Pose) error {
	fields := strings.Fields(rest)
	if len(fields) != 3 {
		return fmt.Errorf("SCANNER_POS wants 3 values, got %d", len(fields))
	}
	p, err := parsePoint(fields[0], fields[1], fields[2])
	if err != nil {
		return fmt.Errorf("SCANNER_POS: %w", err)
	}
	pose.Position = p
	pose.HasPosition = true
	return nil
}

func parseRotation(rest string, pose *Pose) error {
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return fmt.Errorf("SCANNER_ROT wants 2 values, got %d", len(fields))
	}
	yaw, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return fmt.Errorf("SCANNER_ROT: bad yaw %q", fields[0])
	}
	pitch, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return fmt.Errorf("SCANNER_ROT: bad pitch %q", fields[1])
	}
	pose.Yaw = yaw
	pose.Pitch = pitch
	pose.HasRotation = true
	return nil
}
