// Package geom builds the auxiliary display geometry for a scan: the
// sensor-range dome, the floor circle, the heading indicator and the
// equal-aspect bounds the renderers share. All inputs are in the Y-up
// sensor frame; Convention decides how coordinates map to display axes.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/scanviz/internal/scan"
)

// DomeBuffer is the margin applied over the furthest return when
// sizing the sensor dome.
const DomeBuffer = 1.05

// Convention selects how sensor-frame coordinates map onto display axes.
type Convention int

const (
	// YUp plots sensor coordinates unchanged: the vertical axis is
	// the second component, as captured.
	YUp Convention = iota
	// ZUp plots depth on the second display axis and height on the
	// third, for tools that treat Z as vertical.
	ZUp
)

// Display returns p's coordinates in display-axis order.
func (c Convention) Display(p scan.Point) (x, y, z float64) {
	if c == ZUp {
		return p.X, p.Z, p.Y
	}
	return p.X, p.Y, p.Z
}

// AxisNames returns the display axis labels for the convention.
func (c Convention) AxisNames() (x, y, z string) {
	if c == ZUp {
		return "X (m)", "Z depth (m)", "Y up (m)"
	}
	return "X (m)", "Y up (m)", "Z depth (m)"
}

func vec(p scan.Point) r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

func point(v r3.Vec) scan.Point {
	return scan.Point{X: v.X, Y: v.Y, Z: v.Z}
}

// MaxRange returns the greatest distance from the sensor origin across
// all points in the record.
func MaxRange(rec *scan.Record) float64 {
	maxDist := 0.0
	for _, pts := range rec.Points {
		for _, p := range pts {
			if d := r3.Norm(vec(p)); d > maxDist {
				maxDist = d
			}
		}
	}
	return maxDist
}

// DomeRadius returns the sensor dome radius for the record: the
// furthest return plus a small buffer, never zero.
func DomeRadius(rec *scan.Record) float64 {
	r := MaxRange(rec) * DomeBuffer
	if r == 0 {
		r = 1.0
	}
	return r
}

// Polyline is a connected sequence of points.
type Polyline []scan.Point

// Dome returns a hemisphere wireframe of the given radius centred on
// the origin: meridian arcs from zenith to floor plus horizontal rings.
// segments controls how finely each arc is sampled.
func Dome(radius float64, meridians, rings, segments int) []Polyline {
	if radius <= 0 || meridians < 1 || rings < 1 || segments < 2 {
		return nil
	}

	lines := make([]Polyline, 0, meridians+rings)

	// Meridians: zenith (v=0) down to the floor (v=pi/2).
	for m := 0; m < meridians; m++ {
		u := 2 * math.Pi * float64(m) / float64(meridians)
		arc := make(Polyline, 0, segments+1)
		for s := 0; s <= segments; s++ {
			v := (math.Pi / 2) * float64(s) / float64(segments)
			arc = append(arc, domePoint(radius, u, v))
		}
		lines = append(lines, arc)
	}

	// Rings: horizontal circles between zenith and floor.
	for k := 1; k <= rings; k++ {
		v := (math.Pi / 2) * float64(k) / float64(rings)
		ring := make(Polyline, 0, segments+1)
		for s := 0; s <= segments; s++ {
			u := 2 * math.Pi * float64(s) / float64(segments)
			ring = append(ring, domePoint(radius, u, v))
		}
		lines = append(lines, ring)
	}

	return lines
}

// domePoint evaluates the Y-up hemisphere parametric equations at
// azimuth u and polar angle v (v=0 is the zenith).
func domePoint(radius, u, v float64) scan.Point {
	return scan.Point{
		X: radius * math.Cos(u) * math.Sin(v),
		Y: radius * math.Cos(v),
		Z: radius * math.Sin(u) * math.Sin(v),
	}
}

// FloorCircle returns a closed circle of the given radius in the
// ground plane (y = 0).
func FloorCircle(radius float64, segments int) Polyline {
	if radius <= 0 || segments < 3 {
		return nil
	}
	circle := make(Polyline, 0, segments+1)
	for s := 0; s <= segments; s++ {
		theta := 2 * math.Pi * float64(s) / float64(segments)
		circle = append(circle, scan.Point{
			X: radius * math.Cos(theta),
			Y: 0,
			Z: radius * math.Sin(theta),
		})
	}
	return circle
}

// HeadingDirection returns the unit vector the scanner faces for the
// pose's yaw and pitch. Zero yaw and pitch faces along +Z in the
// ground plane; positive pitch points above it.
func HeadingDirection(pose scan.Pose) r3.Vec {
	return r3.Vec{
		X: math.Sin(pose.Yaw) * math.Cos(pose.Pitch),
		Y: math.Sin(pose.Pitch),
		Z: math.Cos(pose.Yaw) * math.Cos(pose.Pitch),
	}
}

// HeadingRay returns a two-point segment from the pose position along
// its facing direction.
func HeadingRay(pose scan.Pose, length float64) Polyline {
	start := vec(pose.Position)
	end := r3.Add(start, r3.Scale(length, HeadingDirection(pose)))
	return Polyline{point(start), point(end)}
}

// SquareExtent reports the display-axis midpoints and the half-width of
// a square window that covers every point and the whole dome, so plots
// keep an equal aspect ratio.
func SquareExtent(rec *scan.Record, domeRadius float64, conv Convention) (midX, midY, midZ, half float64) {
	first := true
	var minX, maxX, minY, maxY, minZ, maxZ float64
	for _, pts := range rec.Points {
		for _, p := range pts {
			x, y, z := conv.Display(p)
			if first {
				minX, maxX, minY, maxY, minZ, maxZ = x, x, y, y, z, z
				first = false
				continue
			}
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
			minZ, maxZ = math.Min(minZ, z), math.Max(maxZ, z)
		}
	}

	span := math.Max(maxX-minX, math.Max(maxY-minY, maxZ-minZ))
	span = math.Max(span, 2*domeRadius)

	midX = (minX + maxX) / 2
	midY = (minY + maxY) / 2
	midZ = (minZ + maxZ) / 2
	return midX, midY, midZ, span / 2
}
