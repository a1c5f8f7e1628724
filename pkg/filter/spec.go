// Package filter decides whether a metadata record matches a compound
// capture filter (date, time of day, ISO, artist, camera, location, altitude).
package filter

import (
	"fmt"
	"math"
	"regexp"
)

// Spec is the compound predicate. Nil or empty dimensions never exclude a
// record.
type Spec struct {
	DateRange *DateRange  `json:"date_range,omitempty"`
	TimeOfDay *TimeWindow `json:"time_of_day,omitempty"`
	ISO       *Range      `json:"iso,omitempty"`
	Artist    string      `json:"artist,omitempty"`
	Camera    *Camera     `json:"camera,omitempty"`
	Location  *Location   `json:"location,omitempty"`
	Altitude  *Range      `json:"altitude,omitempty"`
}

// DateRange bounds are inclusive "YYYY-MM-DD" strings; empty means unbounded.
type DateRange struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// TimeWindow bounds are inclusive "HH:MM" strings. A window with From > To
// matches nothing.
type TimeWindow struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// Range is an inclusive numeric range with optional ends.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

type Camera struct {
	Make  string `json:"make,omitempty"`
	Model string `json:"model,omitempty"`
}

// Location is either a bounding box or a center plus radius. When both are
// set, center and radius win.
type Location struct {
	// [minLon, minLat, maxLon, maxLat]
	BBox    *[4]float64 `json:"bbox,omitempty"`
	Center  *Point      `json:"center,omitempty"`
	RadiusM *float64    `json:"radius_m,omitempty"`
}

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// Validate checks the shape of every bound. It does not reorder inverted
// ranges.
func (s *Spec) Validate() error {
	if s == nil {
		return nil
	}
	if d := s.DateRange; d != nil {
		if err := checkFormat("date_range.from", d.From, dateRe, "YYYY-MM-DD"); err != nil {
			return err
		}
		if err := checkFormat("date_range.to", d.To, dateRe, "YYYY-MM-DD"); err != nil {
			return err
		}
	}
	if t := s.TimeOfDay; t != nil {
		if err := checkFormat("time_of_day.from", t.From, timeRe, "HH:MM"); err != nil {
			return err
		}
		if err := checkFormat("time_of_day.to", t.To, timeRe, "HH:MM"); err != nil {
			return err
		}
	}
	if l := s.Location; l != nil {
		if (l.Center == nil) != (l.RadiusM == nil) {
			return fmt.Errorf("location: center and radius_m must be given together")
		}
		if l.RadiusM != nil && (!finite(*l.RadiusM) || *l.RadiusM < 0) {
			return fmt.Errorf("location.radius_m: must be a non-negative number, got %v", *l.RadiusM)
		}
		if l.Center != nil {
			if err := checkPoint("location.center", l.Center.Lat, l.Center.Lon); err != nil {
				return err
			}
		}
		if b := l.BBox; b != nil {
			if err := checkPoint("location.bbox", b[1], b[0]); err != nil {
				return err
			}
			if err := checkPoint("location.bbox", b[3], b[2]); err != nil {
				return err
			}
		}
	}
	if err := checkRange("iso", s.ISO); err != nil {
		return err
	}
	if err := checkRange("altitude", s.Altitude); err != nil {
		return err
	}
	return nil
}

// HasLocation reports whether any geo constraint is active.
func (l *Location) HasLocation() bool {
	return l != nil && (l.BBox != nil || (l.Center != nil && l.RadiusM != nil))
}

func checkFormat(field, v string, re *regexp.Regexp, layout string) error {
	if v == "" || re.MatchString(v) {
		return nil
	}
	return fmt.Errorf("%s: %q is not %s", field, v, layout)
}

func checkPoint(field string, lat, lon float64) error {
	if !finite(lat) || !finite(lon) {
		return fmt.Errorf("%s: coordinates must be finite, got %v,%v", field, lat, lon)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%s: latitude %v out of range", field, lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%s: longitude %v out of range", field, lon)
	}
	return nil
}

func checkRange(field string, r *Range) error {
	if r == nil {
		return nil
	}
	if r.Min != nil && math.IsNaN(*r.Min) {
		return fmt.Errorf("%s.min: must be a number", field)
	}
	if r.Max != nil && math.IsNaN(*r.Max) {
		return fmt.Errorf("%s.max: must be a number", field)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
