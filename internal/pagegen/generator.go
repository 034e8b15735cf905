package pagegen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"go-directory-app/internal/apperr"
	"go-directory-app/internal/data"
	"go-directory-app/internal/logger"
	"go-directory-app/internal/slug"
	"go-directory-app/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
)

// Invalidator marks cached renderings of URL paths as stale.
type Invalidator interface {
	Invalidate(ctx context.Context, paths ...string) error
}

// BusinessInput is the payload of the create-business form.
type BusinessInput struct {
	Name              string                 `json:"name" validate:"required"`
	Slug              string                 `json:"slug" validate:"required"`
	Category          string                 `json:"category"`
	Description       string                 `json:"description" validate:"required"`
	Address           string                 `json:"address" validate:"required"`
	City              string                 `json:"city" validate:"required"`
	State             string                 `json:"state" validate:"required"`
	ZipCode           string                 `json:"zipCode" validate:"required"`
	Phone             string                 `json:"phone" validate:"required"`
	Website           string                 `json:"website"`
	Email             string                 `json:"email" validate:"omitempty,email"`
	FeaturedImage     string                 `json:"featuredImage" validate:"required"`
	Amenities         []string               `json:"amenities"`
	Hours             data.Hours             `json:"hours"`
	Locations         []string               `json:"locations"`
	LocationsDetailed []data.LocationListing `json:"locationsDetailed"`
}

// CreateResult reports what Create wrote.
type CreateResult struct {
	Slug      string   `json:"slug"`
	Locations []string `json:"locations"`
}

// Entry is one page found in the tree.
type Entry struct {
	Ref
	ModTime time.Time
}

// identity keys cannot be changed by Update; the directory layout owns them.
var identityKeys = []string{"slug", "locationSlug"}

// Generator writes business and location pages into a page tree. It performs
// no locking: concurrent writers to the same slug race and the last write of
// each file wins.
type Generator struct {
	fs          afero.Fs
	renderer    *Renderer
	invalidator Invalidator
	validate    *validator.Validate
	log         logger.Logger
	now         func() time.Time
}

// New creates a Generator over fsys. inv may be nil.
func New(fsys afero.Fs, inv Invalidator, log logger.Logger) (*Generator, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	return &Generator{
		fs:          fsys,
		renderer:    renderer,
		invalidator: inv,
		validate:    validation.New(),
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// NewOnDisk creates a Generator rooted at the directory root, creating it if needed.
func NewOnDisk(root string, inv Invalidator, log logger.Logger) (*Generator, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create page root: %w", err)
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), root), inv, log)
}

// Create validates in and writes the business page plus one page per location.
// Locations whose slug normalizes to "" are skipped; of several locations
// sharing a slug, the last one listed is written. Existing files are
// overwritten. A write failure stops the operation and leaves whatever was
// already written in place.
func (g *Generator) Create(ctx context.Context, in BusinessInput) (*CreateResult, error) {
	trimInput(&in)
	in.Slug = slug.From(in.Slug, in.Name)
	if err := validation.Struct(g.validate, in); err != nil {
		return nil, err
	}

	now := g.now()
	listing := data.BusinessListing{
		Slug:          in.Slug,
		Name:          in.Name,
		Category:      in.Category,
		Description:   in.Description,
		Address:       in.Address,
		City:          in.City,
		State:         in.State,
		ZipCode:       in.ZipCode,
		Phone:         in.Phone,
		Website:       in.Website,
		Email:         in.Email,
		FeaturedImage: in.FeaturedImage,
		Amenities:     data.StringList(in.Amenities),
		Hours:         in.Hours,
		Rating:        data.DefaultRating,
		ReviewCount:   data.DefaultReviewCount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if listing.Amenities == nil {
		listing.Amenities = data.StringList{}
	}

	pages := []*Page{{BusinessListing: listing}}
	seen := make(map[string]int)
	for _, loc := range collectLocations(in) {
		locSlug := slug.From(loc.Slug, loc.City)
		if locSlug == "" {
			g.log.Debug(fmt.Sprintf("skipping location %q of %s: empty slug", loc.Name, in.Slug))
			continue
		}
		// A later entry with the same slug replaces the earlier one in place.
		if i, ok := seen[locSlug]; ok {
			pages[i] = mergeLocation(listing, loc, locSlug)
			continue
		}
		seen[locSlug] = len(pages)
		pages = append(pages, mergeLocation(listing, loc, locSlug))
	}

	result := &CreateResult{Slug: in.Slug, Locations: []string{}}
	var refs []Ref
	for _, p := range pages {
		if p.IsLocation() {
			refs = append(refs, Ref{BusinessSlug: p.Slug, LocationSlug: p.LocationSlug})
		}
	}

	var writeErr error
	for _, p := range pages {
		var siblings []Ref
		if !p.IsLocation() {
			siblings = refs
		}
		if err := g.writePage(p, siblings); err != nil {
			writeErr = err
			break
		}
		if p.IsLocation() {
			result.Locations = append(result.Locations, p.LocationSlug)
		}
	}

	g.invalidate(ctx, stalePaths(in.Slug, result.Locations))
	if writeErr != nil {
		return nil, apperr.Storage("failed to write business pages", writeErr)
	}
	g.log.Info(fmt.Sprintf("created business %s with %d location(s)", in.Slug, len(result.Locations)))
	return result, nil
}

// Read returns the data file of a business, or of one of its locations.
func (g *Generator) Read(ctx context.Context, businessSlug, locationSlug string) (*Page, error) {
	raw, err := g.ReadRaw(ctx, businessSlug, locationSlug)
	if err != nil {
		return nil, err
	}
	var p Page
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, apperr.Storage("failed to decode page data", err)
	}
	return &p, nil
}

// ReadRaw returns the data file contents exactly as stored.
func (g *Generator) ReadRaw(_ context.Context, businessSlug, locationSlug string) ([]byte, error) {
	ref, err := resolveRef(businessSlug, locationSlug)
	if err != nil {
		return nil, err
	}
	raw, err := afero.ReadFile(g.fs, path.Join(ref.Dir(), DataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.NotFound("page %s not found", ref.URLPath())
		}
		return nil, apperr.Storage("failed to read page data", err)
	}
	return raw, nil
}

// Update shallow-merges fields over the stored data file and rewrites that
// file only. The target must already exist.
func (g *Generator) Update(ctx context.Context, businessSlug, locationSlug string, fields map[string]any) error {
	raw, err := g.ReadRaw(ctx, businessSlug, locationSlug)
	if err != nil {
		return err
	}
	ref, _ := resolveRef(businessSlug, locationSlug)

	original := map[string]any{}
	if err := json.Unmarshal(raw, &original); err != nil {
		return apperr.Storage("failed to decode page data", err)
	}
	current := make(map[string]any, len(original)+len(fields))
	for k, v := range original {
		current[k] = v
	}
	for k, v := range fields {
		current[k] = v
	}
	for _, k := range identityKeys {
		if v, ok := original[k]; ok {
			current[k] = v
		} else {
			delete(current, k)
		}
	}
	current["updatedAt"] = g.now()

	merged, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return apperr.Storage("failed to encode page data", err)
	}
	// Reject merges that no longer decode into a page, e.g. a string rating.
	var check Page
	if err := json.Unmarshal(merged, &check); err != nil {
		return apperr.Validation("invalid field value: %v", err)
	}
	if err := afero.WriteFile(g.fs, path.Join(ref.Dir(), DataFile), merged, 0o644); err != nil {
		return apperr.Storage("failed to write page data", err)
	}

	var locs []string
	if ref.LocationSlug != "" {
		locs = []string{ref.LocationSlug}
	}
	g.invalidate(ctx, stalePaths(ref.BusinessSlug, locs))
	return nil
}

// Delete removes one location directory, or the whole business directory with
// every location when locationSlug is empty. Removing a missing path succeeds.
func (g *Generator) Delete(ctx context.Context, businessSlug, locationSlug string) error {
	ref, err := resolveRef(businessSlug, locationSlug)
	if err != nil {
		return err
	}

	locs := []string{ref.LocationSlug}
	if ref.LocationSlug == "" {
		locs, err = g.locationSlugs(ref.BusinessSlug)
		if err != nil {
			return apperr.Storage("failed to list business locations", err)
		}
	}

	if err := g.fs.RemoveAll(ref.Dir()); err != nil {
		return apperr.Storage("failed to delete pages", err)
	}
	g.invalidate(ctx, stalePaths(ref.BusinessSlug, locs))
	g.log.Info(fmt.Sprintf("deleted %s", ref.URLPath()))
	return nil
}

// Render renders the current data file of a page, including links to the
// business's locations on the business page.
func (g *Generator) Render(ctx context.Context, businessSlug, locationSlug string) ([]byte, error) {
	p, err := g.Read(ctx, businessSlug, locationSlug)
	if err != nil {
		return nil, err
	}
	var siblings []Ref
	if !p.IsLocation() {
		locs, err := g.locationSlugs(p.Slug)
		if err != nil {
			return nil, apperr.Storage("failed to list business locations", err)
		}
		for _, l := range locs {
			siblings = append(siblings, Ref{BusinessSlug: p.Slug, LocationSlug: l})
		}
	}
	out, err := g.renderer.Render(p, siblings)
	if err != nil {
		return nil, apperr.Storage("failed to render page", err)
	}
	return out, nil
}

// RenderListing renders a listing that has no page in the tree, such as one
// held only by the CMS or the relational store.
func (g *Generator) RenderListing(l *data.BusinessListing) ([]byte, error) {
	out, err := g.renderer.Render(&Page{BusinessListing: *l}, nil)
	if err != nil {
		return nil, apperr.Storage("failed to render page", err)
	}
	return out, nil
}

// List returns every business and location page in the tree, businesses in
// slug order with their locations following them.
func (g *Generator) List(_ context.Context) ([]Entry, error) {
	dirs, err := afero.ReadDir(g.fs, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, apperr.Storage("failed to read page tree", err)
	}
	entries := []Entry{}
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		info, err := g.fs.Stat(path.Join(d.Name(), DataFile))
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Ref: Ref{BusinessSlug: d.Name()}, ModTime: info.ModTime()})

		locs, err := g.locationSlugs(d.Name())
		if err != nil {
			return nil, apperr.Storage("failed to read page tree", err)
		}
		for _, l := range locs {
			ref := Ref{BusinessSlug: d.Name(), LocationSlug: l}
			li, err := g.fs.Stat(path.Join(ref.Dir(), DataFile))
			if err != nil {
				continue
			}
			entries = append(entries, Entry{Ref: ref, ModTime: li.ModTime()})
		}
	}
	return entries, nil
}

func (g *Generator) writePage(p *Page, locations []Ref) error {
	dir := Ref{BusinessSlug: p.Slug, LocationSlug: p.LocationSlug}.Dir()
	if err := g.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := afero.WriteFile(g.fs, path.Join(dir, DataFile), raw, 0o644); err != nil {
		return err
	}
	html, err := g.renderer.Render(p, locations)
	if err != nil {
		return err
	}
	return afero.WriteFile(g.fs, path.Join(dir, PageFile), html, 0o644)
}

// locationSlugs lists the location sub-directories of a business, sorted.
func (g *Generator) locationSlugs(businessSlug string) ([]string, error) {
	infos, err := afero.ReadDir(g.fs, businessSlug)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var locs []string
	for _, fi := range infos {
		if fi.IsDir() {
			locs = append(locs, fi.Name())
		}
	}
	sort.Strings(locs)
	return locs, nil
}

// invalidate is best effort: failures are logged and never fail the caller.
func (g *Generator) invalidate(ctx context.Context, paths []string) {
	if g.invalidator == nil {
		return
	}
	if err := g.invalidator.Invalidate(ctx, paths...); err != nil {
		g.log.Warn(fmt.Sprintf("failed to invalidate cached pages %v: %v", paths, err))
	}
}

// resolveRef normalizes the slugs of a page reference. An empty business slug,
// or a location given but normalizing to nothing, is rejected so that a
// malformed request can never address the tree root.
func resolveRef(businessSlug, locationSlug string) (Ref, error) {
	ref := Ref{BusinessSlug: slug.Normalize(businessSlug), LocationSlug: slug.Normalize(locationSlug)}
	if ref.BusinessSlug == "" {
		return Ref{}, apperr.Validation("missing required field: slug")
	}
	if strings.TrimSpace(locationSlug) != "" && ref.LocationSlug == "" {
		return Ref{}, apperr.Validation("invalid location: %q", locationSlug)
	}
	return ref, nil
}

func collectLocations(in BusinessInput) []data.LocationListing {
	locs := make([]data.LocationListing, 0, len(in.Locations)+len(in.LocationsDetailed))
	for _, name := range in.Locations {
		locs = append(locs, data.LocationListing{Slug: name, Name: name})
	}
	return append(locs, in.LocationsDetailed...)
}

func trimInput(in *BusinessInput) {
	for _, s := range []*string{
		&in.Name, &in.Slug, &in.Category, &in.Description, &in.Address, &in.City,
		&in.State, &in.ZipCode, &in.Phone, &in.Website, &in.Email, &in.FeaturedImage,
	} {
		*s = strings.TrimSpace(*s)
	}
}
