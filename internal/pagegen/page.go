package pagegen

import (
	"path"
	"strings"

	"go-directory-app/internal/data"
)

// File names inside every page directory.
const (
	DataFile = "listing.json"
	PageFile = "page.html"
)

// URL layout of the generated pages.
const (
	BusinessURLPrefix = "/businesses/"
	SitemapPath       = "/businesses/sitemap.xml"
	RootSitemapPath   = "/sitemap.xml"
)

// Page is the structured data file stored for a business or one of its
// locations. Location pages carry the parent's fields with overrides baked in.
type Page struct {
	data.BusinessListing
	LocationSlug string `json:"locationSlug,omitempty"`
	LocationName string `json:"locationName,omitempty"`
}

// IsLocation reports whether the page belongs to a named location.
func (p *Page) IsLocation() bool {
	return p.LocationSlug != ""
}

// Title is the heading shown on the rendered page.
func (p *Page) Title() string {
	if p.LocationName != "" {
		return p.Name + " - " + p.LocationName
	}
	return p.Name
}

// URLPath is the public path the page is served under.
func (p *Page) URLPath() string {
	return BusinessPath(p.Slug, p.LocationSlug)
}

// BusinessPath returns the public URL path of a business or location page.
func BusinessPath(businessSlug, locationSlug string) string {
	if locationSlug == "" {
		return BusinessURLPrefix + businessSlug
	}
	return BusinessURLPrefix + businessSlug + "/" + locationSlug
}

// Ref identifies one page in the tree.
type Ref struct {
	BusinessSlug string
	LocationSlug string
}

// Dir is the page-tree directory holding the page's files.
func (r Ref) Dir() string {
	if r.LocationSlug == "" {
		return r.BusinessSlug
	}
	return path.Join(r.BusinessSlug, r.LocationSlug)
}

// URLPath is the public path the page is served under.
func (r Ref) URLPath() string {
	return BusinessPath(r.BusinessSlug, r.LocationSlug)
}

// stalePaths lists every URL whose rendering depends on the given pages.
func stalePaths(businessSlug string, locationSlugs []string) []string {
	paths := make([]string, 0, len(locationSlugs)+3)
	paths = append(paths, BusinessPath(businessSlug, ""))
	for _, loc := range locationSlugs {
		paths = append(paths, BusinessPath(businessSlug, loc))
	}
	return append(paths, SitemapPath, RootSitemapPath)
}

// mergeLocation applies a location's overrides over the parent listing.
func mergeLocation(parent data.BusinessListing, loc data.LocationListing, locSlug string) *Page {
	p := &Page{BusinessListing: parent, LocationSlug: locSlug, LocationName: strings.TrimSpace(loc.Name)}
	if p.LocationName == "" {
		p.LocationName = strings.TrimSpace(loc.City)
	}
	p.Address = orDefault(loc.Address, parent.Address)
	p.City = orDefault(loc.City, parent.City)
	p.State = orDefault(loc.State, parent.State)
	p.ZipCode = orDefault(loc.ZipCode, parent.ZipCode)
	p.Phone = orDefault(loc.Phone, parent.Phone)
	p.Website = orDefault(loc.Website, parent.Website)
	p.Email = orDefault(loc.Email, parent.Email)
	p.FeaturedImage = orDefault(loc.FeaturedImage, parent.FeaturedImage)
	return p
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}
