// Package metadata defines the capture metadata records consumed by the filter
// engine and the sources that produce them.
package metadata

import (
	"context"
	"fmt"
)

// Record is one file's capture metadata. Empty strings and nil pointers mean
// the tag was absent.
type Record struct {
	SourcePath string `json:"source_path"`

	// Raw capture time as written by the camera, e.g. "2024:01:15 10:00:00".
	DateTimeOriginal string `json:"date_time_original,omitempty"`

	ISO *float64 `json:"iso,omitempty"`

	// Creator identity candidates, checked in this order.
	Artist  string `json:"artist,omitempty"`
	Creator string `json:"creator,omitempty"`
	ByLine  string `json:"by_line,omitempty"`

	Make  string `json:"make,omitempty"`
	Model string `json:"model,omitempty"`

	GPSLatitude  *float64 `json:"gps_latitude,omitempty"`
	GPSLongitude *float64 `json:"gps_longitude,omitempty"`
	GPSAltitude  *float64 `json:"gps_altitude,omitempty"`
	// 0 = above sea level, 1 = below.
	GPSAltitudeRef *int `json:"gps_altitude_ref,omitempty"`
}

// Source lists the metadata records for every file under a base directory.
// Implementations must preserve a stable order and return *ExtractionError
// on failure.
type Source interface {
	ListRecords(ctx context.Context, baseDir string) ([]Record, error)
}

// ExtractionError reports that a Source could not produce records.
type ExtractionError struct {
	Source  string
	BaseDir string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: extracting metadata from %s: %v", e.Source, e.BaseDir, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Static is a Source backed by a fixed list of records.
type Static []Record

func (s Static) ListRecords(_ context.Context, _ string) ([]Record, error) {
	out := make([]Record, len(s))
	copy(out, s)
	return out, nil
}

// Float returns a pointer to v. Handy for building records by hand.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}
