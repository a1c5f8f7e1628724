package filter

import (
	"regexp"
	"strings"
)

// EXIF style capture time, optionally followed by sub-seconds and a zone
// suffix which are ignored.
var timestampRe = regexp.MustCompile(`^(\d{4}):(\d{2}):(\d{2})[ T](\d{2}):(\d{2})(?::\d{2})?(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})?$`)

// ParseTimestamp splits a raw capture time into a "YYYY-MM-DD" date and a
// "HH:MM" clock. The components are copied verbatim; no timezone conversion
// happens. ok is false when raw does not have the expected shape.
func ParseTimestamp(raw string) (date, clock string, ok bool) {
	m := timestampRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", "", false
	}
	return m[1] + "-" + m[2] + "-" + m[3], m[4] + ":" + m[5], true
}
