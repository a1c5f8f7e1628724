package metadata

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
)

const sampleExifToolOutput = `[{
  "SourceFile": "/photos/seoul/IMG_0001.JPG",
  "DateTimeOriginal": "2024:01:15 10:00:00",
  "ISO": 200,
  "Artist": "Kim Jiwoo",
  "Make": "SONY",
  "Model": "ILCE-7M4",
  "GPSLatitude": 37.5512,
  "GPSLongitude": 126.9882,
  "GPSAltitude": 10,
  "GPSAltitudeRef": 1
},{
  "SourceFile": "/photos/seoul/IMG_0002.HEIC",
  "CreateDate": "2024:01:16 08:30:00",
  "ISO": "400",
  "Creator": ["Jane Doe", "Studio X"],
  "By-line": "Press"
},{
  "SourceFile": "/photos/notes.png"
},{
  "DateTimeOriginal": "2024:01:01 00:00:00"
}]`

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestParseExifToolJSON(t *testing.T) {
	got, err := ParseExifToolJSON([]byte(sampleExifToolOutput))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Record{
		{
			SourcePath:       filepath.FromSlash("/photos/seoul/IMG_0001.JPG"),
			DateTimeOriginal: "2024:01:15 10:00:00",
			ISO:              Float(200),
			Artist:           "Kim Jiwoo",
			Make:             "SONY",
			Model:            "ILCE-7M4",
			GPSLatitude:      Float(37.5512),
			GPSLongitude:     Float(126.9882),
			GPSAltitude:      Float(10),
			GPSAltitudeRef:   Int(1),
		},
		{
			SourcePath:       filepath.FromSlash("/photos/seoul/IMG_0002.HEIC"),
			DateTimeOriginal: "2024:01:16 08:30:00",
			ISO:              Float(400),
			Creator:          "Jane Doe, Studio X",
			ByLine:           "Press",
		},
		{
			SourcePath: filepath.FromSlash("/photos/notes.png"),
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected records.\nwant: %+v\ngot:  %+v", want, got)
	}
}

func TestParseExifToolJSONAltitudeSign(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantAlt float64
		wantRef *int
	}{
		{"unsigned below sea level", `[{"SourceFile": "/a.jpg", "GPSAltitude": 10, "GPSAltitudeRef": 1}]`, 10, Int(1)},
		{"unsigned above sea level", `[{"SourceFile": "/a.jpg", "GPSAltitude": 10, "GPSAltitudeRef": 0}]`, 10, Int(0)},
		{"already signed", `[{"SourceFile": "/a.jpg", "GPSAltitude": -10, "GPSAltitudeRef": 1}]`, -10, nil},
	}
	for _, tc := range tests {
		recs, err := ParseExifToolJSON([]byte(tc.in))
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		got := recs[0]
		if got.GPSAltitude == nil || *got.GPSAltitude != tc.wantAlt || !reflect.DeepEqual(got.GPSAltitudeRef, tc.wantRef) {
			t.Fatalf("%s: got altitude %v ref %v", tc.name, got.GPSAltitude, got.GPSAltitudeRef)
		}
	}
}

func TestParseExifToolJSONRejectsGarbage(t *testing.T) {
	for _, in := range []string{`not json`, `{"SourceFile": "/a.jpg"}`, `[{"SourceFile": `} {
		if _, err := ParseExifToolJSON([]byte(in)); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}

	recs, err := ParseExifToolJSON([]byte("  \n"))
	if err != nil || len(recs) != 0 {
		t.Fatalf("empty output should give no records, got %v / %v", recs, err)
	}
}

func TestExifToolListRecords(t *testing.T) {
	et := NewExifTool("/opt/exiftool/exiftool", quietLogger())

	var gotName string
	var gotArgs []string
	et.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return []byte(sampleExifToolOutput), nil
	}

	recs, err := et.ListRecords(context.Background(), "/photos")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if gotName != "/opt/exiftool/exiftool" {
		t.Fatalf("unexpected binary %q", gotName)
	}
	for _, a := range gotArgs {
		if a == "-GPSAltitude" {
			t.Fatalf("the signed Composite altitude must not be requested: %v", gotArgs)
		}
	}
	if gotArgs[len(gotArgs)-1] != "/photos" {
		t.Fatalf("base dir must be the last argument, got %v", gotArgs)
	}
	for _, flag := range []string{"-json", "-n", "-r", "-GPS:GPSAltitude", "-GPS:GPSAltitudeRef"} {
		found := false
		for _, a := range gotArgs {
			if a == flag {
				found = true
			}
		}
		if !found {
			t.Fatalf("missing %s in %v", flag, gotArgs)
		}
	}
}

func TestExifToolListRecordsErrors(t *testing.T) {
	et := NewExifTool("", quietLogger())
	if et.Path != DefaultExifToolPath {
		t.Fatalf("expected default path, got %q", et.Path)
	}

	et.run = func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("executable file not found in $PATH")
	}
	_, err := et.ListRecords(context.Background(), "/photos")
	var extErr *ExtractionError
	if !errors.As(err, &extErr) || extErr.Source != "exiftool" || extErr.BaseDir != "/photos" {
		t.Fatalf("expected ExtractionError, got %v", err)
	}

	et.run = func(context.Context, string, ...string) ([]byte, error) {
		return []byte("Warning: something odd"), nil
	}
	if _, err := et.ListRecords(context.Background(), "/photos"); !errors.As(err, &extErr) {
		t.Fatalf("expected ExtractionError for non-JSON output, got %v", err)
	}
}
