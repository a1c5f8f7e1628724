package metadata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const DefaultExifToolPath = "exiftool"

// Tags requested from exiftool. With -n, GPSLatitude and GPSLongitude resolve
// to the signed Composite tags. GPSAltitude is taken from the GPS group so
// that it stays unsigned and GPSAltitudeRef carries the sign as a plain 0/1.
var exifToolTags = []string{
	"-DateTimeOriginal",
	"-CreateDate",
	"-ISO",
	"-Artist",
	"-Creator",
	"-By-line",
	"-Make",
	"-Model",
	"-GPSLatitude",
	"-GPSLongitude",
	"-GPS:GPSAltitude",
	"-GPS:GPSAltitudeRef",
}

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExifTool is a Source that shells out to exiftool once per listing.
type ExifTool struct {
	Path string
	Log  logrus.FieldLogger

	run runFunc
}

func NewExifTool(path string, log logrus.FieldLogger) *ExifTool {
	if path == "" {
		path = DefaultExifToolPath
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ExifTool{Path: path, Log: log, run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

func (e *ExifTool) ListRecords(ctx context.Context, baseDir string) ([]Record, error) {
	args := append([]string{"-json", "-n", "-r", "-q", "-q"}, exifToolTags...)
	args = append(args, baseDir)

	e.Log.Debugf("Running %s %s", e.Path, strings.Join(args, " "))
	out, err := e.run(ctx, e.Path, args...)
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, &ExtractionError{Source: "exiftool", BaseDir: baseDir, Err: err}
		}
		// exiftool exits 1 both when nothing readable was found and when some
		// files failed while others were printed.
		if len(bytes.TrimSpace(out)) == 0 {
			if exitErr.ExitCode() == 1 && len(bytes.TrimSpace(exitErr.Stderr)) == 0 {
				return []Record{}, nil
			}
			return nil, &ExtractionError{Source: "exiftool", BaseDir: baseDir, Err: fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))}
		}
		e.Log.Warnf("exiftool exited with status %d, using partial output", exitErr.ExitCode())
	}

	records, err := ParseExifToolJSON(out)
	if err != nil {
		return nil, &ExtractionError{Source: "exiftool", BaseDir: baseDir, Err: err}
	}
	e.Log.Debugf("exiftool returned %d records for %s", len(records), baseDir)
	return records, nil
}

// ParseExifToolJSON converts `exiftool -json -n` output into records. Entries
// without a SourceFile are dropped.
func ParseExifToolJSON(data []byte) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Record{}, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.New("exiftool output is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, errors.New("exiftool output is not a JSON array")
	}

	items := root.Array()
	records := make([]Record, 0, len(items))
	for _, item := range items {
		src := stringValue(item.Get("SourceFile"))
		if src == "" {
			continue
		}

		rec := Record{
			SourcePath:       filepath.FromSlash(src),
			DateTimeOriginal: stringValue(item.Get("DateTimeOriginal")),
			ISO:              floatValue(item.Get("ISO")),
			Artist:           stringValue(item.Get("Artist")),
			Creator:          stringValue(item.Get("Creator")),
			ByLine:           stringValue(item.Get("By-line")),
			Make:             stringValue(item.Get("Make")),
			Model:            stringValue(item.Get("Model")),
			GPSLatitude:      floatValue(item.Get("GPSLatitude")),
			GPSLongitude:     floatValue(item.Get("GPSLongitude")),
			GPSAltitude:      floatValue(item.Get("GPSAltitude")),
		}
		if rec.DateTimeOriginal == "" {
			rec.DateTimeOriginal = stringValue(item.Get("CreateDate"))
		}
		if ref := floatValue(item.Get("GPSAltitudeRef")); ref != nil {
			rec.GPSAltitudeRef = Int(int(*ref))
		}
		// An already signed altitude must not be negated again by its ref.
		if rec.GPSAltitude != nil && *rec.GPSAltitude < 0 {
			rec.GPSAltitudeRef = nil
		}
		records = append(records, rec)
	}
	return records, nil
}

// stringValue flattens a loosely typed tag. List-valued tags (XMP Creator,
// IPTC By-line) are joined with ", ".
func stringValue(r gjson.Result) string {
	switch {
	case r.IsArray():
		var parts []string
		for _, v := range r.Array() {
			if s := stringValue(v); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case r.Type == gjson.String:
		return strings.TrimSpace(r.Str)
	case r.Type == gjson.Number:
		return r.Raw
	default:
		return ""
	}
}

func floatValue(r gjson.Result) *float64 {
	switch r.Type {
	case gjson.Number:
		return Float(r.Num)
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return nil
		}
		return Float(f)
	default:
		return nil
	}
}
