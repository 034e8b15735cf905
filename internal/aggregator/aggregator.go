// Package aggregator combines the listing sources behind the public pages.
package aggregator

import (
	"context"
	"fmt"

	"go-directory-app/internal/data"
	"go-directory-app/internal/logger"
	"go-directory-app/internal/slug"
)

// Sources are the available listing sources. Any of them may be nil.
type Sources struct {
	CMS        ListingSource
	Relational ListingSource
	Static     ListingSource
}

// Aggregator answers listing queries for display. None of its operations
// return an error; an unavailable source degrades to fewer results.
type Aggregator struct {
	all    *Chain
	cms    *Chain
	bySlug *Chain
	log    logger.Logger
}

// New wires the fallback chain of each operation.
func New(src Sources, log logger.Logger) *Aggregator {
	return &Aggregator{
		all:    NewChain(log, src.Relational, src.Static),
		cms:    NewChain(log, src.CMS),
		bySlug: NewChain(log, src.CMS, src.Relational, src.Static),
		log:    log,
	}
}

// FetchAll returns every relational listing, or the bundled dataset when the
// relational store is unavailable or empty. The two are never merged.
func (a *Aggregator) FetchAll(ctx context.Context) []*data.BusinessListing {
	return a.all.Find(ctx, data.ListingQuery{})
}

// FetchByCategory returns the CMS listings in a category, newest first.
func (a *Aggregator) FetchByCategory(ctx context.Context, categorySlug string) []*data.BusinessListing {
	category := slug.Normalize(categorySlug)
	if category == "" {
		return []*data.BusinessListing{}
	}
	return a.cms.Find(ctx, data.ListingQuery{Category: category})
}

// Search prefix-matches every term of query. When the filtered search finds
// nothing, every listing is returned instead. Only the CMS is searched: with
// no CMS configured the result is empty, whatever the other sources hold.
func (a *Aggregator) Search(ctx context.Context, query, location, category string) []*data.BusinessListing {
	q := data.ListingQuery{
		Terms:    data.ParseTerms(query),
		Location: location,
		Category: slug.Normalize(category),
	}
	listings := a.cms.Find(ctx, q)
	if len(listings) > 0 || q.IsZero() {
		return listings
	}
	a.log.Debug(fmt.Sprintf("search %q matched nothing, returning all listings", query))
	return a.cms.Find(ctx, data.ListingQuery{})
}

// FetchBySlug looks a listing up by slug. It returns nil when no source has it.
func (a *Aggregator) FetchBySlug(ctx context.Context, listingSlug string) *data.BusinessListing {
	s := slug.Normalize(listingSlug)
	if s != "" {
		if found := a.bySlug.Find(ctx, data.ListingQuery{Slug: s}); len(found) > 0 {
			return found[0]
		}
	}
	a.log.Info(fmt.Sprintf("listing %q not found", listingSlug))
	return nil
}
