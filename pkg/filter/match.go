package filter

import (
	"strings"

	"github.com/sw33tLie/exifscope/pkg/metadata"
)

// Reason explains why a record was excluded.
type Reason int

const (
	Included Reason = iota
	MissingTimestamp
	OutsideDateRange
	OutsideTimeOfDay
	OutsideISORange
	ArtistMismatch
	CameraMismatch
	MissingLocation
	OutsideLocation
	MissingAltitude
	OutsideAltitudeRange
)

var reasonNames = map[Reason]string{
	Included:             "included",
	MissingTimestamp:     "missing or unparsable timestamp",
	OutsideDateRange:     "outside date range",
	OutsideTimeOfDay:     "outside time of day",
	OutsideISORange:      "outside ISO range",
	ArtistMismatch:       "artist mismatch",
	CameraMismatch:       "camera mismatch",
	MissingLocation:      "no GPS coordinates",
	OutsideLocation:      "outside location",
	MissingAltitude:      "no GPS altitude",
	OutsideAltitudeRange: "outside altitude range",
}

func (r Reason) String() string {
	if s, ok := reasonNames[r]; ok {
		return s
	}
	return "unknown"
}

// Outcome is the verdict for one record.
type Outcome struct {
	Reason Reason
}

func (o Outcome) Included() bool {
	return o.Reason == Included
}

// Skipped reports whether the record was dropped for lacking a usable
// timestamp rather than by a filter dimension.
func (o Outcome) Skipped() bool {
	return o.Reason == MissingTimestamp
}

// Match evaluates rec against every dimension of spec. All dimensions must
// pass. The timestamp check always runs first, even when spec has no time
// constraint.
func Match(rec metadata.Record, spec Spec) Outcome {
	date, clock, ok := ParseTimestamp(rec.DateTimeOriginal)
	if !ok {
		return Outcome{MissingTimestamp}
	}

	if d := spec.DateRange; d != nil {
		if (d.From != "" && date < d.From) || (d.To != "" && date > d.To) {
			return Outcome{OutsideDateRange}
		}
	}

	if t := spec.TimeOfDay; t != nil {
		if (t.From != "" && clock < t.From) || (t.To != "" && clock > t.To) {
			return Outcome{OutsideTimeOfDay}
		}
	}

	// Records without an ISO value pass the ISO filter.
	if spec.ISO != nil && rec.ISO != nil && !spec.ISO.contains(*rec.ISO) {
		return Outcome{OutsideISORange}
	}

	if spec.Artist != "" {
		who := firstNonEmpty(rec.Artist, rec.Creator, rec.ByLine)
		if who == "" || !containsFold(who, spec.Artist) {
			return Outcome{ArtistMismatch}
		}
	}

	if c := spec.Camera; c != nil {
		if c.Make != "" && !containsFold(rec.Make, c.Make) {
			return Outcome{CameraMismatch}
		}
		if c.Model != "" && !containsFold(rec.Model, c.Model) {
			return Outcome{CameraMismatch}
		}
	}

	if spec.Location.HasLocation() {
		if r := matchLocation(rec, spec.Location); r != Included {
			return Outcome{r}
		}
	}

	if a := spec.Altitude; a != nil && (a.Min != nil || a.Max != nil) {
		if rec.GPSAltitude == nil {
			return Outcome{MissingAltitude}
		}
		alt := *rec.GPSAltitude
		if rec.GPSAltitudeRef != nil && *rec.GPSAltitudeRef == 1 {
			alt = -alt
		}
		if !a.contains(alt) {
			return Outcome{OutsideAltitudeRange}
		}
	}

	return Outcome{Included}
}

func matchLocation(rec metadata.Record, loc *Location) Reason {
	if rec.GPSLatitude == nil || rec.GPSLongitude == nil {
		return MissingLocation
	}
	p := Point{Lat: *rec.GPSLatitude, Lon: *rec.GPSLongitude}

	if loc.Center != nil && loc.RadiusM != nil {
		if Distance(*loc.Center, p) > *loc.RadiusM {
			return OutsideLocation
		}
		return Included
	}

	b := loc.BBox
	if p.Lon < b[0] || p.Lon > b[2] || p.Lat < b[1] || p.Lat > b[3] {
		return OutsideLocation
	}
	return Included
}

func (r *Range) contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
