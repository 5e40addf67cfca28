// Package render turns parsed scans into charts: an interactive 3D
// scatter page (go-echarts) and static projection plots (gonum/plot).
package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/scanviz/internal/geom"
	"github.com/banshee-data/scanviz/internal/scan"
)

// Overlay colors shared by both renderers.
const (
	overlayGray  = "#9e9e9e"
	headingRed   = "#ff5252"
	originMarker = "#ffffff"
)

// ChartConfig controls the interactive scatter chart.
type ChartConfig struct {
	Title      string
	Subtitle   string
	Convention geom.Convention
}

// Scatter3D renders the scan as a self-contained interactive HTML page:
// one scatter series per label plus the sensor dome, floor circle,
// origin marker and (when a pose was captured) heading indicator.
func Scatter3D(res *scan.Result, cfg ChartConfig, w io.Writer) error {
	rec := res.Record
	radius := geom.DomeRadius(rec)
	xName, yName, zName := cfg.Convention.AxisNames()

	sc := charts.NewScatter3D()
	sc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: cfg.Title,
			Theme:     "dark",
			Width:     "1200px",
			Height:    "900px",
		}),
		charts.WithTitleOpts(opts.Title{Title: cfg.Title, Subtitle: cfg.Subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: xName, Type: "value"}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: yName, Type: "value"}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: zName, Type: "value"}),
		charts.WithGrid3DOpts(opts.Grid3D{Show: opts.Bool(true), BoxWidth: 160, BoxDepth: 160, BoxHeight: 160}),
	)

	palette := Palette(len(rec.Labels))
	for i, label := range rec.Labels {
		sc.AddSeries(label, chart3DData(rec.Points[label], cfg.Convention),
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: HexColor(palette[i])}),
		)
	}

	dome := flatten(geom.Dome(radius, 12, 6, 36))
	sc.AddSeries("sensor dome", chart3DData(dome, cfg.Convention),
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: overlayGray, Opacity: opts.Float(0.3)}),
	)

	floor := geom.FloorCircle(radius, 100)
	sc.AddSeries("sensor floor range", chart3DData(floor, cfg.Convention),
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: overlayGray}),
	)

	if res.Pose.HasRotation || res.Pose.HasPosition {
		ray := sampleSegment(geom.HeadingRay(res.Pose, radius/2), 24)
		sc.AddSeries("heading", chart3DData(ray, cfg.Convention),
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: headingRed}),
		)
	}

	sc.AddSeries("sensor origin", chart3DData([]scan.Point{res.Pose.Position}, cfg.Convention),
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 14}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: originMarker}),
	)

	if err := sc.Render(w); err != nil {
		return fmt.Errorf("render scatter chart: %w", err)
	}
	return nil
}

// chart3DData maps points into chart values using the display convention.
func chart3DData(points []scan.Point, conv geom.Convention) []opts.Chart3DData {
	data := make([]opts.Chart3DData, 0, len(points))
	for _, p := range points {
		x, y, z := conv.Display(p)
		data = append(data, opts.Chart3DData{Value: []interface{}{x, y, z}})
	}
	return data
}

// flatten concatenates polylines into a single point list for rendering
// as a dense scatter series.
func flatten(lines []geom.Polyline) []scan.Point {
	var points []scan.Point
	for _, line := range lines {
		points = append(points, line...)
	}
	return points
}

// sampleSegment interpolates n points along a two-point segment so the
// scatter renderer shows it as a solid ray.
func sampleSegment(seg geom.Polyline, n int) []scan.Point {
	if len(seg) != 2 || n < 2 {
		return seg
	}
	a, b := seg[0], seg[1]
	points := make([]scan.Point, 0, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		points = append(points, scan.Point{
			X: a.X + t*(b.X-a.X),
			Y: a.Y + t*(b.Y-a.Y),
			Z: a.Z + t*(b.Z-a.Z),
		})
	}
	return points
}
