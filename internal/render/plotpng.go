package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/scanviz/internal/geom"
	"github.com/banshee-data/scanviz/internal/scan"
)

var (
	plotGray  = color.RGBA{R: 158, G: 158, B: 158, A: 255}
	plotRed   = color.RGBA{R: 255, G: 82, B: 82, A: 255}
	plotBlack = color.RGBA{A: 255}
)

// TopDown builds an overhead projection of the scan onto the ground
// plane (X across, Z depth up the page) with the floor circle, origin
// and heading overlaid.
func TopDown(res *scan.Result, title string) (*plot.Plot, error) {
	rec := res.Record
	radius := geom.DomeRadius(rec)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Z depth (m)"
	p.Add(plotter.NewGrid())

	palette := Palette(len(rec.Labels))
	for i, label := range rec.Labels {
		pts := rec.Points[label]
		xys := make(plotter.XYs, 0, len(pts))
		for _, pt := range pts {
			xys = append(xys, plotter.XY{X: pt.X, Y: pt.Z})
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("label %q: %w", label, err)
		}
		s.GlyphStyle.Color = palette[i]
		s.GlyphStyle.Radius = vg.Points(2)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
		p.Legend.Add(label, s)
	}

	floor, err := polylineXZ(geom.FloorCircle(radius, 100))
	if err != nil {
		return nil, err
	}
	floor.LineStyle.Color = plotGray
	floor.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(floor)
	p.Legend.Add("sensor floor range", floor)

	if res.Pose.HasRotation || res.Pose.HasPosition {
		heading, err := polylineXZ(geom.HeadingRay(res.Pose, radius/2))
		if err != nil {
			return nil, err
		}
		heading.LineStyle.Color = plotRed
		heading.LineStyle.Width = vg.Points(1.5)
		p.Add(heading)
		p.Legend.Add("heading", heading)
	}

	origin, err := plotter.NewScatter(plotter.XYs{{X: res.Pose.Position.X, Y: res.Pose.Position.Z}})
	if err != nil {
		return nil, err
	}
	origin.GlyphStyle.Color = plotBlack
	origin.GlyphStyle.Radius = vg.Points(5)
	origin.GlyphStyle.Shape = draw.CrossGlyph{}
	p.Add(origin)
	p.Legend.Add("sensor origin", origin)

	// Equal aspect: square window around the dome and every point.
	midX, _, midZ, half := geom.SquareExtent(rec, radius, geom.YUp)
	p.X.Min, p.X.Max = midX-half, midX+half
	p.Y.Min, p.Y.Max = midZ-half, midZ+half

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	return p, nil
}

// Elevation builds a side profile: horizontal distance from the origin
// against height, with the dome profile arc overlaid. The floor sits at
// height zero, as captured.
func Elevation(res *scan.Result, title string) (*plot.Plot, error) {
	rec := res.Record
	radius := geom.DomeRadius(rec)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Horizontal distance (m)"
	p.Y.Label.Text = "Y up (m)"
	p.Add(plotter.NewGrid())

	maxHeight := 0.0
	palette := Palette(len(rec.Labels))
	for i, label := range rec.Labels {
		pts := rec.Points[label]
		xys := make(plotter.XYs, 0, len(pts))
		for _, pt := range pts {
			xys = append(xys, plotter.XY{X: math.Hypot(pt.X, pt.Z), Y: pt.Y})
			if pt.Y > maxHeight {
				maxHeight = pt.Y
			}
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("label %q: %w", label, err)
		}
		s.GlyphStyle.Color = palette[i]
		s.GlyphStyle.Radius = vg.Points(2)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
		p.Legend.Add(label, s)
	}

	// Dome profile: quarter arc from the zenith down to the floor edge.
	const segments = 50
	arc := make(plotter.XYs, 0, segments+1)
	for s := 0; s <= segments; s++ {
		v := (math.Pi / 2) * float64(s) / float64(segments)
		arc = append(arc, plotter.XY{X: radius * math.Sin(v), Y: radius * math.Cos(v)})
	}
	dome, err := plotter.NewLine(arc)
	if err != nil {
		return nil, err
	}
	dome.LineStyle.Color = plotGray
	dome.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(dome)
	p.Legend.Add("sensor dome", dome)

	p.X.Min, p.X.Max = 0, radius*1.1
	p.Y.Min, p.Y.Max = 0, math.Max(maxHeight, radius)*1.1

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	return p, nil
}

// WritePNG renders the plot as a square PNG.
func WritePNG(p *plot.Plot, w io.Writer) error {
	wt, err := p.WriterTo(10*vg.Inch, 10*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

// polylineXZ projects a polyline onto the ground plane as a plot line.
func polylineXZ(line geom.Polyline) (*plotter.Line, error) {
	xys := make(plotter.XYs, 0, len(line))
	for _, pt := range line {
		xys = append(xys, plotter.XY{X: pt.X, Y: pt.Z})
	}
	l, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("overlay line: %w", err)
	}
	return l, nil
}
