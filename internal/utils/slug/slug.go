// Package slug derives filesystem-safe filename stems from feed item titles.
package slug

import (
	"strings"
	"unicode"
)

// Spoiler markers that Letterboxd appends to review titles. They carry no
// information for the image filename and are stripped before slugging.
var spoilerMarkers = []string{
	"(contains spoilers)",
	"contains spoilers",
}

// Make converts a title into a lowercase, hyphen-separated slug containing
// only letters, digits, and single hyphens. It is pure, total, and
// idempotent: Make(Make(s)) == Make(s) for every input, and the empty string
// maps to the empty string.
func Make(title string) string {
	s := title
	for _, marker := range spoilerMarkers {
		s = strings.TrimSpace(strings.ReplaceAll(s, marker, ""))
	}

	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "-")

	// Keep letters, digits, and hyphens. Rating glyphs such as ½ and all
	// punctuation fall out here.
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	s = b.String()

	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}

	return strings.Trim(s, "-")
}
