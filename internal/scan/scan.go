// Package scan parses categorized point-cloud capture files.
//
// A capture is a line-oriented text file with one sample per line
// (three coordinates and a category label) and optional pose headers
// recorded by the scanner before the first sample:
//
//	# SCANNER_POS: <x> <y> <z>
//	# SCANNER_ROT: <yaw_rad> <pitch_rad>
//	<x> <y> <z> <label>
//
// Coordinates are metres in a Y-up, right-handed sensor frame.
package scan

// Point is a single sample position in the Y-up, right-handed sensor frame.
type Point struct {
	X, Y, Z float64
}

// Add returns the point translated by d.
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y, Z: p.Z + d.Z}
}

// Neg returns the point with all components negated.
func (p Point) Neg() Point {
	return Point{X: -p.X, Y: -p.Y, Z: -p.Z}
}

// Pose is the scanner position and orientation at capture time.
// The zero value (origin, zero yaw and pitch) applies when a capture
// carries no pose headers.
type Pose struct {
	Position Point
	Yaw      float64 // radians, rotation around the vertical axis
	Pitch    float64 // radians, elevation above the ground plane

	// HasPosition and HasRotation record whether the corresponding
	// header occurred in the capture.
	HasPosition bool
	HasRotation bool
}

// Record groups parsed points by category label. Labels keeps the order
// in which labels first appeared so renders are reproducible run to run.
type Record struct {
	Points map[string][]Point
	Labels []string
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{Points: make(map[string][]Point)}
}

// Add appends a point to the label's bucket, creating the bucket on first use.
func (r *Record) Add(label string, p Point) {
	if _, ok := r.Points[label]; !ok {
		r.Labels = append(r.Labels, label)
	}
	r.Points[label] = append(r.Points[label], p)
}

// Len returns the total number of points across all labels.
func (r *Record) Len() int {
	n := 0
	for _, pts := range r.Points {
		n += len(pts)
	}
	return n
}

// Translate shifts every point in every bucket by d. Grouping and
// relative distances are unchanged.
func (r *Record) Translate(d Point) {
	for _, pts := range r.Points {
		for i := range pts {
			pts[i] = pts[i].Add(d)
		}
	}
}

// Result is the outcome of parsing one capture file. It is not mutated
// after Parse returns.
type Result struct {
	Record *Record
	Pose   Pose

	// Parse statistics.
	LinesRead    int
	PointCount   int
	SkippedLines int
}
