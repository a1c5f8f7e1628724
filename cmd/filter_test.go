package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/sw33tLie/exifscope/pkg/filter"
	"github.com/sw33tLie/exifscope/pkg/metadata"
	"github.com/sw33tLie/exifscope/pkg/pick"
	"github.com/sw33tLie/exifscope/pkg/storage"
)

func parseFilterFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "filter"}
	addFilterFlags(c)
	if err := c.Flags().Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return c
}

func ptr(v float64) *float64 { return &v }

func TestSpecFromFlags(t *testing.T) {
	c := parseFilterFlags(t,
		"--date-from", "2024-01-01", "--date-to", "2024-01-31",
		"--time-from", "09:00",
		"--iso-max", "800",
		"--artist", "kim",
		"--model", "7M4",
		"--center", "37.5512, 126.9882", "--radius", "500",
		"--alt-min", "0",
	)

	got, err := specFromFlags(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := filter.Spec{
		DateRange: &filter.DateRange{From: "2024-01-01", To: "2024-01-31"},
		TimeOfDay: &filter.TimeWindow{From: "09:00"},
		ISO:       &filter.Range{Max: ptr(800)},
		Artist:    "kim",
		Camera:    &filter.Camera{Model: "7M4"},
		Location:  &filter.Location{Center: &filter.Point{Lat: 37.5512, Lon: 126.9882}, RadiusM: ptr(500)},
		Altitude:  &filter.Range{Min: ptr(0)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected spec.\nwant: %+v\ngot:  %+v", want, got)
	}
}

func TestSpecFromFlagsNoFlagsIsEmpty(t *testing.T) {
	got, err := specFromFlags(parseFilterFlags(t))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, filter.Spec{}) {
		t.Fatalf("expected empty spec, got %+v", got)
	}
}

func TestSpecFromFlagsOverridesFilterJSON(t *testing.T) {
	c := parseFilterFlags(t,
		"--filter-json", `{"date_range": {"from": "2023-01-01", "to": "2023-12-31"}, "location": {"bbox": [1, 2, 3, 4]}}`,
		"--date-to", "2023-06-30",
		"--bbox", "126.76,37.4,127.18,37.7",
	)
	got, err := specFromFlags(c)
	if err != nil {
		t.Fatal(err)
	}
	if got.DateRange.From != "2023-01-01" || got.DateRange.To != "2023-06-30" {
		t.Fatalf("unexpected date range %+v", got.DateRange)
	}
	if *got.Location.BBox != [4]float64{126.76, 37.4, 127.18, 37.7} {
		t.Fatalf("unexpected bbox %v", *got.Location.BBox)
	}
}

func TestSpecFromFlagsErrors(t *testing.T) {
	tests := []struct {
		args  []string
		field string
	}{
		{[]string{"--bbox", "1,2,3"}, "bbox"},
		{[]string{"--center", "north,south"}, "center"},
		{[]string{"--filter-json", "{"}, "filter-json"},
	}
	for _, tc := range tests {
		_, err := specFromFlags(parseFilterFlags(t, tc.args...))
		var vErr *pick.ValidationError
		if !errors.As(err, &vErr) || vErr.Field != tc.field {
			t.Fatalf("%v: expected ValidationError on %s, got %v", tc.args, tc.field, err)
		}
	}
}

func TestNewSource(t *testing.T) {
	if src, err := newSource("", ""); err != nil {
		t.Fatal(err)
	} else if _, ok := src.(*metadata.ExifTool); !ok {
		t.Fatalf("expected exiftool by default, got %T", src)
	}
	if src, err := newSource("Native", ""); err != nil {
		t.Fatal(err)
	} else if _, ok := src.(*metadata.Native); !ok {
		t.Fatalf("expected native source, got %T", src)
	}
	if _, err := newSource("exiv2", ""); err == nil {
		t.Fatalf("expected error for unknown extractor")
	}
}

func TestRunnerRecordsHistory(t *testing.T) {
	base := t.TempDir()
	outRoot := t.TempDir()
	photo := filepath.Join(base, "a.jpg")
	if err := os.WriteFile(photo, []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}

	dbPath := filepath.Join(t.TempDir(), "history.sqlite")
	db, err := storage.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.Local)
	r := &runner{
		source: metadata.Static{{SourcePath: photo, DateTimeOriginal: "2024:01:15 10:00:00"}},
		now:    func() time.Time { return now },
		db:     db,
		dbPath: dbPath,
	}

	req := pick.Request{BaseDir: base, OutputRoot: outRoot, Prompt: "Seoul trip"}
	report, err := r.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	diskFull := errors.New("no space left on device")
	r.copy = func(string, string) (int64, error) { return 0, diskFull }
	if _, err := r.Run(context.Background(), req); !errors.Is(err, diskFull) {
		t.Fatalf("expected copy failure, got %v", err)
	}

	runs, err := db.ListRuns(context.Background(), storage.ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected two recorded runs, got %d", len(runs))
	}

	var ok, failed storage.Run
	for _, run := range runs {
		if run.Status == storage.StatusOK {
			ok = run
		} else {
			failed = run
		}
	}

	okRun, err := db.GetRun(context.Background(), ok.ID)
	if err != nil {
		t.Fatal(err)
	}
	if okRun.Matched != 1 || !reflect.DeepEqual(okRun.Files, report.Files) || okRun.OutputDir != report.OutputDir {
		t.Fatalf("unexpected ok run %+v", okRun)
	}
	if failed.Status != storage.StatusFailed || failed.Error == "" || failed.OutputDir != report.OutputDir {
		t.Fatalf("unexpected failed run %+v", failed)
	}
}

func TestRunnerDryRunIsNotRecorded(t *testing.T) {
	base := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "history.sqlite")
	db, err := storage.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	r := &runner{source: metadata.Static{}, dryRun: true, db: db, dbPath: dbPath}
	if _, err := r.Run(context.Background(), pick.Request{BaseDir: base, OutputRoot: base, Prompt: "p"}); err != nil {
		t.Fatal(err)
	}
	runs, err := db.ListRuns(context.Background(), storage.ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Fatalf("dry runs must not be recorded, got %d", len(runs))
	}
}
