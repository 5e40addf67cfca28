// Package scandb persists an index of rendered scans in SQLite.
package scandb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/scanviz/internal/scan"
)

// ErrScanNotFound reports a lookup for an unknown scan id.
var ErrScanNotFound = errors.New("scan not found")

// DB wraps the scan index database.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the scan index at path and applies
// any pending migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open scan index %q: %w", path, err)
	}

	s := &DB{db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate scan index %q: %w", path, err)
	}
	return s, nil
}

// Scan is one indexed render of a capture file.
type Scan struct {
	ID         string    `json:"id"`
	SourcePath string    `json:"source_path"`
	Labels     int       `json:"labels"`
	Points     int       `json:"points"`
	DomeRadius float64   `json:"dome_radius"`
	PoseX      float64   `json:"pose_x"`
	PoseY      float64   `json:"pose_y"`
	PoseZ      float64   `json:"pose_z"`
	YawRad     float64   `json:"yaw_rad"`
	PitchRad   float64   `json:"pitch_rad"`
	CreatedAt  time.Time `json:"created_at"`
}

// RecordScan stores one parsed capture in the index and returns the
// stored row, including its generated id.
func (db *DB) RecordScan(res *scan.Result, sourcePath string, domeRadius float64) (*Scan, error) {
	s := &Scan{
		ID:         uuid.NewString(),
		SourcePath: sourcePath,
		Labels:     len(res.Record.Labels),
		Points:     res.PointCount,
		DomeRadius: domeRadius,
		PoseX:      res.Pose.Position.X,
		PoseY:      res.Pose.Position.Y,
		PoseZ:      res.Pose.Position.Z,
		YawRad:     res.Pose.Yaw,
		PitchRad:   res.Pose.Pitch,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := db.Exec(`
		INSERT INTO scans (
			scan_id, source_path, label_count, point_count, dome_radius,
			pose_x, pose_y, pose_z, yaw_rad, pitch_rad, created_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.SourcePath, s.Labels, s.Points, s.DomeRadius,
		s.PoseX, s.PoseY, s.PoseZ, s.YawRad, s.PitchRad, s.CreatedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("record scan: %w", err)
	}
	return s, nil
}

// ListScans returns up to limit scans, most recent first.
func (db *DB) ListScans(limit int) ([]Scan, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.Query(`
		SELECT scan_id, source_path, label_count, point_count, dome_radius,
		       pose_x, pose_y, pose_z, yaw_rad, pitch_rad, created_at_ns
		FROM scans
		ORDER BY created_at_ns DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	var scans []Scan
	for rows.Next() {
		s, err := scanRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list scans: %w", err)
		}
		scans = append(scans, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	return scans, nil
}

// GetScan returns the scan with the given id.
func (db *DB) GetScan(id string) (*Scan, error) {
	row := db.QueryRow(`
		SELECT scan_id, source_path, label_count, point_count, dome_radius,
		       pose_x, pose_y, pose_z, yaw_rad, pitch_rad, created_at_ns
		FROM scans
		WHERE scan_id = ?`, id)

	s, err := scanRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrScanNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get scan %s: %w", id, err)
	}
	return s, nil
}

// scanRow reads one scans row through the given Scan function.
func scanRow(scanFn func(dest ...any) error) (*Scan, error) {
	var s Scan
	var createdNs int64
	err := scanFn(
		&s.ID, &s.SourcePath, &s.Labels, &s.Points, &s.DomeRadius,
		&s.PoseX, &s.PoseY, &s.PoseZ, &s.YawRad, &s.PitchRad, &createdNs,
	)
	if err != nil {
		return nil, err
	}
	s.CreatedAt = time.Unix(0, createdNs).UTC()
	return &s, nil
}
