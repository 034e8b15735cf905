package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize lowercases s, collapses every run of characters outside [a-z0-9]
// into one hyphen and trims hyphens from both ends. An input made only of
// symbols normalizes to "", which callers treat as "no slug".
func Normalize(s string) string {
	s = nonAlnum.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

var apostrophes = strings.NewReplacer("'", "", "\u2019", "")

// FromName derives a slug from a display name. Apostrophes are dropped before
// normalizing so "Joe's Pizza" becomes "joes-pizza".
func FromName(name string) string {
	return Normalize(apostrophes.Replace(name))
}

// From returns the normalized explicit slug, or the slug derived from
// fallback when explicit is empty after normalization.
func From(explicit, fallback string) string {
	if s := Normalize(explicit); s != "" {
		return s
	}
	return FromName(fallback)
}
