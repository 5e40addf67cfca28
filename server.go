package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"gonum.org/v1/plot"

	"github.com/banshee-data/scanviz/internal/fsutil"
	"github.com/banshee-data/scanviz/internal/geom"
	"github.com/banshee-data/scanviz/internal/render"
	"github.com/banshee-data/scanviz/internal/scan"
	"github.com/banshee-data/scanviz/internal/scandb"
)

// Config carries the capture source and display settings into the
// chart server; there is no module-level display toggle.
type Config struct {
	Dir        string
	Pattern    string
	Parse      scan.Options
	Convention geom.Convention
}

// Server renders charts for the newest capture on demand.
type Server struct {
	fs  fsutil.FileSystem
	cfg Config
	db  *scandb.DB
}

// NewServer creates a chart server reading captures through fs.
func NewServer(fs fsutil.FileSystem, cfg Config, db *scandb.DB) *Server {
	return &Server{fs: fs, cfg: cfg, db: db}
}

// ServeMux returns the HTTP routes for the chart server.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.homeHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/scatter3d", s.scatter3DHandler)
	mux.HandleFunc("/topdown.png", s.topDownHandler)
	mux.HandleFunc("/elevation.png", s.elevationHandler)
	mux.HandleFunc("/api/scan", s.scanSummaryHandler)
	mux.HandleFunc("/api/scans", s.listScansHandler)
	return mux
}

// loadLatest parses the newest capture in the configured directory.
func (s *Server) loadLatest() (*scan.Result, string, error) {
	path, err := scan.DiscoverLatest(s.fs, s.cfg.Dir, s.cfg.Pattern)
	if err != nil {
		return nil, "", err
	}
	res, err := scan.ParseFile(s.fs, path, s.cfg.Parse)
	if err != nil {
		return nil, "", err
	}
	return res, path, nil
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head><title>Scan Chart Server</title></head>
<body>
	<h1>Scan Chart Server</h1>
	<p>Captures from %s (pattern %s)</p>
	<ul>
		<li><a href="/scatter3d">Interactive 3D scatter</a></li>
		<li><a href="/topdown.png">Top-down projection</a></li>
		<li><a href="/elevation.png">Elevation profile</a></li>
		<li><a href="/api/scan">Latest scan summary</a></li>
		<li><a href="/api/scans">Rendered scan index</a></li>
		<li><a href="/health">Health check</a></li>
	</ul>
</body>
</html>`, s.cfg.Dir, s.cfg.Pattern)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "ok", "service": "scanviz", "timestamp": "%s"}`, time.Now().UTC().Format(time.RFC3339))
}

func (s *Server) scatter3DHandler(w http.ResponseWriter, r *http.Request) {
	res, path, err := s.loadLatest()
	if err != nil {
		s.writeLoadError(w, err)
		return
	}

	radius := geom.DomeRadius(res.Record)
	cfg := render.ChartConfig{
		Title:      "Point Cloud and Sensor Range",
		Subtitle:   fmt.Sprintf("source=%s points=%d labels=%d", path, res.PointCount, len(res.Record.Labels)),
		Convention: s.cfg.Convention,
	}

	var buf bytes.Buffer
	if err := render.Scatter3D(res, cfg, &buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	if s.db != nil {
		if _, err := s.db.RecordScan(res, path, radius); err != nil {
			log.Printf("failed to index scan: %v", err)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) topDownHandler(w http.ResponseWriter, r *http.Request) {
	s.servePNG(w, func(res *scan.Result) (*plot.Plot, error) {
		return render.TopDown(res, "Point Cloud (top-down)")
	})
}

func (s *Server) elevationHandler(w http.ResponseWriter, r *http.Request) {
	s.servePNG(w, func(res *scan.Result) (*plot.Plot, error) {
		return render.Elevation(res, "Point Cloud (elevation)")
	})
}

func (s *Server) servePNG(w http.ResponseWriter, build func(*scan.Result) (*plot.Plot, error)) {
	res, _, err := s.loadLatest()
	if err != nil {
		s.writeLoadError(w, err)
		return
	}

	p, err := build(res)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to build plot: %v", err))
		return
	}

	var buf bytes.Buffer
	if err := render.WritePNG(p, &buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render plot: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

// scanSummary is the JSON shape of the latest-scan endpoint.
type scanSummary struct {
	SourcePath   string         `json:"source_path"`
	PointCount   int            `json:"point_count"`
	SkippedLines int            `json:"skipped_lines"`
	LabelCounts  map[string]int `json:"label_counts"`
	DomeRadius   float64        `json:"dome_radius"`
	Pose         scan.Pose      `json:"pose"`
}

func (s *Server) scanSummaryHandler(w http.ResponseWriter, r *http.Request) {
	res, path, err := s.loadLatest()
	if err != nil {
		s.writeLoadError(w, err)
		return
	}

	counts := make(map[string]int, len(res.Record.Labels))
	for _, label := range res.Record.Labels {
		counts[label] = len(res.Record.Points[label])
	}

	s.writeJSON(w, http.StatusOK, scanSummary{
		SourcePath:   path,
		PointCount:   res.PointCount,
		SkippedLines: res.SkippedLines,
		LabelCounts:  counts,
		DomeRadius:   geom.DomeRadius(res.Record),
		Pose:         res.Pose,
	})
}

func (s *Server) listScansHandler(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "scan index not configured")
		return
	}

	scans, err := s.db.ListScans(50)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list scans: %v", err))
		return
	}
	if scans == nil {
		scans = []scandb.Scan{}
	}
	s.writeJSON(w, http.StatusOK, scans)
}

// writeLoadError maps capture loading failures onto HTTP statuses:
// nothing to render is 404, everything else 500.
func (s *Server) writeLoadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scan.ErrNoScans):
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("no capture files: %v", err))
	case errors.Is(err, scan.ErrNoData):
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("capture has no valid data lines: %v", err))
	default:
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load capture: %v", err))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode json response: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		log.Printf("failed to encode json error response: %v", err)
	}
}
