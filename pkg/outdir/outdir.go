// Package outdir derives output folder names from a date and a free-text
// prompt.
package outdir

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// reserved are replaced one by one with a hyphen.
const reserved = `/\:*?"<>|`

var hyphenRun = regexp.MustCompile(`-{2,}`)

// Slug makes prompt safe to use as a single path element: whitespace runs
// become one hyphen, each reserved character becomes a hyphen, and repeated
// hyphens collapse.
func Slug(prompt string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range prompt {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('-')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}

	s := b.String()
	for _, c := range reserved {
		s = strings.ReplaceAll(s, string(c), "-")
	}
	return hyphenRun.ReplaceAllString(s, "-")
}

// Name returns "{YYYY-MM-DD}_{slug}" using now in the local timezone.
func Name(now time.Time, prompt string) string {
	return now.Local().Format("2006-01-02") + "_" + Slug(prompt)
}
