package data

import (
	"strings"
	"unicode"

	"go-directory-app/internal/slug"
)

// ListingQuery narrows a set of listings. The zero value matches everything.
type ListingQuery struct {
	Terms    []string // lowercase prefix terms, all must match
	Location string   // substring of address, city, state or zip
	Category string   // category slug, exact
	Slug     string
}

// ParseTerms splits free text on whitespace and lowercases each token.
func ParseTerms(q string) []string {
	fields := strings.Fields(strings.ToLower(q))
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// IsZero reports whether q carries no filter at all.
func (q ListingQuery) IsZero() bool {
	return len(q.Terms) == 0 && q.Location == "" && q.Category == "" && q.Slug == ""
}

// Matches evaluates q against l in memory, mirroring the CMS filter semantics.
func (q ListingQuery) Matches(l *BusinessListing) bool {
	if q.Slug != "" && l.Slug != q.Slug {
		return false
	}
	if q.Category != "" && slug.Normalize(l.Category) != slug.Normalize(q.Category) {
		return false
	}
	if q.Location != "" {
		loc := strings.ToLower(strings.TrimSpace(q.Location))
		hay := strings.ToLower(strings.Join([]string{l.Address, l.City, l.State, l.ZipCode}, " "))
		if !strings.Contains(hay, loc) {
			return false
		}
	}
	if len(q.Terms) > 0 {
		words := strings.FieldsFunc(strings.ToLower(strings.Join([]string{l.Name, l.Description, l.Category, l.City}, " ")), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		for _, term := range q.Terms {
			if !anyHasPrefix(words, term) {
				return false
			}
		}
	}
	return true
}

func anyHasPrefix(words []string, prefix string) bool {
	for _, w := range words {
		if strings.HasPrefix(w, prefix) {
			return true
		}
	}
	return false
}

// Filter returns the listings of ls matching q, preserving order.
func (q ListingQuery) Filter(ls []*BusinessListing) []*BusinessListing {
	if q.IsZero() {
		return ls
	}
	out := make([]*BusinessListing, 0, len(ls))
	for _, l := range ls {
		if q.Matches(l) {
			out = append(out, l)
		}
	}
	return out
}
