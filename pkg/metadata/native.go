package metadata

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/sirupsen/logrus"
)

// photoExts lists the extensions the native source decodes.
var photoExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".heic": true,
	".dng":  true,
	".arw":  true,
	".cr2":  true,
	".nef":  true,
	".raf":  true,
}

// skipFolders are system or camera housekeeping directories.
var skipFolders = map[string]bool{
	".stfolder":       true,
	".fseventsd":      true,
	".Trashes":        true,
	".Spotlight-V100": true,
	"PRIVATE":         true,
	"AVF_INFO":        true,
	"THMBNL":          true,
}

// Native is a Source that reads EXIF directly with goexif. It does not see
// XMP or IPTC, so Creator and ByLine are always empty.
type Native struct {
	Log logrus.FieldLogger
}

func NewNative(log logrus.FieldLogger) *Native {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Native{Log: log}
}

func (n *Native) ListRecords(ctx context.Context, baseDir string) ([]Record, error) {
	var records []Record

	err := filepath.Walk(baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == baseDir {
				return err
			}
			n.Log.Debugf("Skipping %s: %v", path, err)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if info.IsDir() {
			name := info.Name()
			if path != baseDir && (strings.HasPrefix(name, ".") || skipFolders[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") || !photoExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		records = append(records, n.readRecord(path))
		return nil
	})
	if err != nil {
		return nil, &ExtractionError{Source: "native", BaseDir: baseDir, Err: err}
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// readRecord never fails: unreadable or EXIF-less files yield a record with
// only the path set.
func (n *Native) readRecord(path string) Record {
	rec := Record{SourcePath: path}

	f, err := os.Open(path)
	if err != nil {
		n.Log.Debugf("Cannot open %s: %v", path, err)
		return rec
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		n.Log.Debugf("No EXIF in %s: %v", path, err)
		return rec
	}

	rec.DateTimeOriginal = exifString(x, exif.DateTimeOriginal)
	if rec.DateTimeOriginal == "" {
		rec.DateTimeOriginal = exifString(x, exif.DateTime)
	}
	rec.Artist = exifString(x, exif.Artist)
	rec.Make = exifString(x, exif.Make)
	rec.Model = exifString(x, exif.Model)

	if tag, err := x.Get(exif.ISOSpeedRatings); err == nil {
		if v, err := tag.Int(0); err == nil {
			rec.ISO = Float(float64(v))
		}
	}
	if lat, lon, err := x.LatLong(); err == nil {
		rec.GPSLatitude = Float(lat)
		rec.GPSLongitude = Float(lon)
	}
	if tag, err := x.Get(exif.GPSAltitude); err == nil {
		if r, err := tag.Rat(0); err == nil {
			alt, _ := r.Float64()
			rec.GPSAltitude = Float(alt)
		}
	}
	if tag, err := x.Get(exif.GPSAltitudeRef); err == nil {
		if v, err := tag.Int(0); err == nil {
			rec.GPSAltitudeRef = Int(v)
		}
	}
	return rec
}

func exifString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}
