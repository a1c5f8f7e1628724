package metadata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNativeListRecordsWalksPhotos(t *testing.T) {
	base := t.TempDir()
	files := map[string]string{
		"a.jpg":             "not really a jpeg",
		"trip/b.JPEG":       "nope",
		"trip/notes.txt":    "skip me",
		".hidden.jpg":       "skip me",
		".cache/c.jpg":      "skip me",
		"THMBNL/thumb.jpg":  "skip me",
		"trip/deeper/d.nef": "raw",
	}
	for name, content := range files {
		path := filepath.Join(base, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := NewNative(quietLogger()).ListRecords(context.Background(), base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Files without EXIF still produce records, with only the path set.
	want := []Record{
		{SourcePath: filepath.Join(base, "a.jpg")},
		{SourcePath: filepath.Join(base, "trip", "b.JPEG")},
		{SourcePath: filepath.Join(base, "trip", "deeper", "d.nef")},
	}
	if !reflect.DeepEqual(recs, want) {
		t.Fatalf("unexpected records.\nwant: %+v\ngot:  %+v", want, recs)
	}
}

func TestNativeListRecordsEmptyDir(t *testing.T) {
	recs, err := NewNative(quietLogger()).ListRecords(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", recs)
	}
}

func TestNativeListRecordsMissingDir(t *testing.T) {
	_, err := NewNative(quietLogger()).ListRecords(context.Background(), filepath.Join(t.TempDir(), "missing"))
	var extErr *ExtractionError
	if !errors.As(err, &extErr) || extErr.Source != "native" {
		t.Fatalf("expected native ExtractionError, got %v", err)
	}
}

func TestStaticReturnsCopy(t *testing.T) {
	src := Static{{SourcePath: "/a.jpg"}}
	recs, _ := src.ListRecords(context.Background(), "/")
	recs[0].SourcePath = "/changed.jpg"
	if src[0].SourcePath != "/a.jpg" {
		t.Fatalf("Static must not expose its backing slice")
	}
}
