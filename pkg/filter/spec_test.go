package filter

import (
	"math"
	"strings"
	"testing"
)

func TestSpecValidate(t *testing.T) {
	radius := 100.0
	negative := -1.0
	nan := math.NaN()
	inf := math.Inf(1)

	tests := []struct {
		name    string
		spec    Spec
		wantErr string
	}{
		{"empty", Spec{}, ""},
		{"good dates", Spec{DateRange: &DateRange{From: "2024-01-01", To: "2024-01-31"}}, ""},
		{"inverted dates are allowed", Spec{DateRange: &DateRange{From: "2024-02-01", To: "2024-01-01"}}, ""},
		{"bad date", Spec{DateRange: &DateRange{From: "2024/01/01"}}, "date_range.from"},
		{"bad time", Spec{TimeOfDay: &TimeWindow{To: "9:00"}}, "time_of_day.to"},
		{"center without radius", Spec{Location: &Location{Center: &Point{}}}, "together"},
		{"radius without center", Spec{Location: &Location{RadiusM: &radius}}, "together"},
		{"negative radius", Spec{Location: &Location{Center: &Point{}, RadiusM: &negative}}, "negative"},
		{"center out of range", Spec{Location: &Location{Center: &Point{Lat: 91}, RadiusM: &radius}}, "latitude"},
		{"bbox out of range", Spec{Location: &Location{BBox: &[4]float64{-190, 0, 10, 10}}}, "longitude"},
		{"nan radius", Spec{Location: &Location{Center: &Point{}, RadiusM: &nan}}, "radius_m"},
		{"infinite radius", Spec{Location: &Location{Center: &Point{}, RadiusM: &inf}}, "radius_m"},
		{"nan center", Spec{Location: &Location{Center: &Point{Lat: nan, Lon: nan}, RadiusM: &radius}}, "finite"},
		{"nan bbox", Spec{Location: &Location{BBox: &[4]float64{0, nan, 10, 10}}}, "finite"},
		{"nan iso bound", Spec{ISO: &Range{Min: &nan}}, "iso.min"},
		{"nan altitude bound", Spec{Altitude: &Range{Max: &nan}}, "altitude.max"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.spec.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
