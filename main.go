// Command scanviz renders categorized point-cloud captures from the
// simulation environment as an interactive 3D scatter page plus static
// projection plots. By default it renders the newest capture in -dir to
// -out and exits; with -serve it renders charts on demand over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"gonum.org/v1/plot"

	"github.com/banshee-data/scanviz/internal/fsutil"
	"github.com/banshee-data/scanviz/internal/geom"
	"github.com/banshee-data/scanviz/internal/render"
	"github.com/banshee-data/scanviz/internal/scan"
	"github.com/banshee-data/scanviz/internal/scandb"
)

var (
	file     = flag.String("file", "", "Path to a capture file (overrides -dir discovery)")
	dir      = flag.String("dir", ".", "Directory searched for the newest capture file")
	pattern  = flag.String("pattern", scan.DefaultPattern, "Glob pattern for capture discovery")
	relative = flag.Bool("relative", false, "Translate points into scanner-relative coordinates")
	strict   = flag.Bool("strict", false, "Abort on the first malformed line instead of skipping it")
	noPose   = flag.Bool("no-pose", false, "Treat scanner pose headers as plain comments")
	zUp      = flag.Bool("z-up", false, "Plot depth on the second display axis for Z-up tools")
	outDir   = flag.String("out", "charts", "Output directory for one-shot rendering")
	serve    = flag.Bool("serve", false, "Serve charts over HTTP instead of writing files")
	listen   = flag.String("listen", ":8082", "HTTP listen address (with -serve)")
	dbFile   = flag.String("db", "scanviz.db", "Path to the scan index database")
)

func parseOptions() scan.Options {
	return scan.Options{
		IgnorePoseHeaders: *noPose,
		ScannerRelative:   *relative,
		Strict:            *strict,
	}
}

func convention() geom.Convention {
	if *zUp {
		return geom.ZUp
	}
	return geom.YUp
}

// resolveCapture picks the capture to render: an explicit -file, or the
// newest match in -dir.
func resolveCapture(fsys fsutil.FileSystem) (string, error) {
	if *file != "" {
		return *file, nil
	}
	return scan.DiscoverLatest(fsys, *dir, *pattern)
}

// renderOnce parses one capture and writes all chart outputs to -out.
func renderOnce(fsys fsutil.FileSystem, db *scandb.DB) error {
	path, err := resolveCapture(fsys)
	if err != nil {
		return err
	}

	res, err := scan.ParseFile(fsys, path, parseOptions())
	if err != nil {
		return err
	}

	radius := geom.DomeRadius(res.Record)
	if err := fsys.MkdirAll(*outDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	chartPath := filepath.Join(*outDir, "scatter3d.html")
	f, err := fsys.Create(chartPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", chartPath, err)
	}
	cfg := render.ChartConfig{
		Title:      "Point Cloud and Sensor Range",
		Subtitle:   fmt.Sprintf("source=%s points=%d labels=%d", path, res.PointCount, len(res.Record.Labels)),
		Convention: convention(),
	}
	if err := render.Scatter3D(res, cfg, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	plots := []struct {
		name  string
		build func() (*plot.Plot, error)
	}{
		{"topdown.png", func() (*plot.Plot, error) { return render.TopDown(res, "Point Cloud (top-down)") }},
		{"elevation.png", func() (*plot.Plot, error) { return render.Elevation(res, "Point Cloud (elevation)") }},
	}
	for _, pl := range plots {
		p, err := pl.build()
		if err != nil {
			return err
		}
		out := filepath.Join(*outDir, pl.name)
		f, err := fsys.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		if err := render.WritePNG(p, f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	if db != nil {
		if _, err := db.RecordScan(res, path, radius); err != nil {
			log.Printf("failed to index scan: %v", err)
		}
	}

	log.Printf("Rendered %s: %d points in %d labels (%d lines skipped), dome radius %.2fm -> %s",
		path, res.PointCount, len(res.Record.Labels), res.SkippedLines, radius, *outDir)
	return nil
}

// runServer serves charts over HTTP until interrupted.
func runServer(db *scandb.DB) {
	srv := NewServer(fsutil.OSFileSystem{}, Config{
		Dir:        *dir,
		Pattern:    *pattern,
		Parse:      parseOptions(),
		Convention: convention(),
	}, db)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := srv.ServeMux()
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("got request %q", r.URL.Path)
			mux.ServeHTTP(w, r)
		})

		server := &http.Server{
			Addr:    *listen,
			Handler: h,
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("Serving scan charts on %s (captures from %s)", *listen, *dir)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

func main() {
	flag.Parse()

	db, err := scandb.Open(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open scan index: %v", err)
	}
	defer db.Close()

	if *serve {
		if *listen == "" {
			log.Fatal("Listen address is required")
		}
		runServer(db)
		return
	}

	if err := renderOnce(fsutil.OSFileSystem{}, db); err != nil {
		if errors.Is(err, scan.ErrNoData) {
			log.Fatalf("No valid data found in the capture: %v", err)
		}
		log.Fatalf("Render failed: %v", err)
	}
}
