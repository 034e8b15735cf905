package aggregator

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"go-directory-app/internal/data"
)

// ListingSource is one place listings can be read from.
type ListingSource interface {
	Name() string
	Find(ctx context.Context, q data.ListingQuery) ([]*data.BusinessListing, error)
}

// ListingRepository is the relational store as seen by the aggregator.
type ListingRepository interface {
	GetAll(ctx context.Context) ([]*data.BusinessListing, error)
	GetBySlug(ctx context.Context, slug string) (*data.BusinessListing, error)
}

// CMSStore is the document store as seen by the aggregator.
type CMSStore interface {
	Find(ctx context.Context, q data.ListingQuery) ([]*data.BusinessListing, error)
	FindBySlug(ctx context.Context, slug string) (*data.BusinessListing, error)
}

type cmsSource struct {
	store CMSStore
}

// CMSSource reads from the headless CMS, which filters server side.
func CMSSource(store CMSStore) ListingSource {
	return &cmsSource{store: store}
}

func (s *cmsSource) Name() string { return "cms" }

func (s *cmsSource) Find(ctx context.Context, q data.ListingQuery) ([]*data.BusinessListing, error) {
	if q.Slug != "" {
		return one(s.store.FindBySlug(ctx, q.Slug))
	}
	return s.store.Find(ctx, q)
}

type relationalSource struct {
	repo ListingRepository
}

// RelationalSource reads from the SQL listings table and filters in memory.
func RelationalSource(repo ListingRepository) ListingSource {
	return &relationalSource{repo: repo}
}

func (s *relationalSource) Name() string { return "relational" }

func (s *relationalSource) Find(ctx context.Context, q data.ListingQuery) ([]*data.BusinessListing, error) {
	if q.Slug != "" {
		return one(s.repo.GetBySlug(ctx, q.Slug))
	}
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return q.Filter(all), nil
}

//go:embed static_listings.json
var staticListingsJSON []byte

type staticSource struct {
	listings []*data.BusinessListing
}

// StaticSource serves the bundled dataset in file order.
func StaticSource() (ListingSource, error) {
	var listings []*data.BusinessListing
	if err := json.Unmarshal(staticListingsJSON, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode bundled listings: %w", err)
	}
	return &staticSource{listings: listings}, nil
}

func (s *staticSource) Name() string { return "static" }

// Find returns copies, so callers may modify the results freely.
func (s *staticSource) Find(_ context.Context, q data.ListingQuery) ([]*data.BusinessListing, error) {
	matched := q.Filter(s.listings)
	out := make([]*data.BusinessListing, len(matched))
	for i, l := range matched {
		c := *l
		if l.Amenities != nil {
			c.Amenities = append(make(data.StringList, 0, len(l.Amenities)), l.Amenities...)
		}
		out[i] = &c
	}
	return out, nil
}

func one(l *data.BusinessListing, err error) ([]*data.BusinessListing, error) {
	if err != nil || l == nil {
		return nil, err
	}
	return []*data.BusinessListing{l}, nil
}
