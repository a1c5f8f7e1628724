package outdir

import (
	"strings"
	"testing"
	"time"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Seoul trip: day 1!", "Seoul-trip-day-1!"},
		{"already-clean", "already-clean"},
		{"a   b\t\nc", "a-b-c"},
		{`a/b\c:d*e?f"g<h>i|j`, "a-b-c-d-e-f-g-h-i-j"},
		{"x -- y", "x-y"},
		{"<<??>>", "-"},
		{"Jeju 🌊 sunset", "Jeju-🌊-sunset"},
	}

	for _, tc := range tests {
		if got := Slug(tc.in); got != tc.want {
			t.Fatalf("Slug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSlugIsIdempotent(t *testing.T) {
	for _, in := range []string{"Seoul trip: day 1!", "a  /  b", "plain"} {
		once := Slug(in)
		if twice := Slug(once); twice != once {
			t.Fatalf("Slug not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestSlugStripsReservedCharacters(t *testing.T) {
	got := Slug(`what/is\this: "a*b?" <c> | d`)
	if strings.ContainsAny(got, reserved+" ") {
		t.Fatalf("slug %q still contains reserved characters", got)
	}
	if strings.Contains(got, "--") {
		t.Fatalf("slug %q contains a double hyphen", got)
	}
}

func TestName(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.Local)
	if got := Name(now, "Seoul trip: day 1!"); got != "2024-03-09_Seoul-trip-day-1!" {
		t.Fatalf("unexpected name %q", got)
	}
}
