package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"go-directory-app/internal/apperr"
	"go-directory-app/internal/cache"
	"go-directory-app/internal/data"
	"go-directory-app/internal/logger"
	"go-directory-app/internal/middleware"
	"go-directory-app/internal/pagegen"
	"go-directory-app/internal/slug"
)

// RenderCache holds rendered responses keyed by URL path.
type RenderCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ListingFinder looks a listing up across the listing sources.
type ListingFinder interface {
	FetchBySlug(ctx context.Context, slug string) *data.BusinessListing
}

// BusinessHandler serves rendered business and location pages.
type BusinessHandler struct {
	pages    *pagegen.Generator
	listings ListingFinder
	cache    RenderCache
	ttl      time.Duration
	log      logger.Logger
}

// NewBusinessHandler creates a new BusinessHandler. listings may be nil.
func NewBusinessHandler(pages *pagegen.Generator, listings ListingFinder, c RenderCache, ttl time.Duration, log logger.Logger) *BusinessHandler {
	return &BusinessHandler{pages: pages, listings: listings, cache: c, ttl: ttl, log: log}
}

// pageHandler serves /businesses/{slug}[/{location}]. Pages come from the
// render cache, then the page tree, then any listing source that knows the
// business slug.
func (h *BusinessHandler) pageHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	businessSlug := slug.Normalize(chi.URLParam(r, "slug"))
	locationSlug := slug.Normalize(chi.URLParam(r, "location"))
	ctx := r.Context()
	key := cache.RenderKey(pagegen.BusinessPath(businessSlug, locationSlug))

	body, err := h.cache.Get(ctx, key)
	if err != nil {
		h.log.Warn("render cache read failed: " + err.Error())
	}
	if body == nil {
		body, err = h.render(ctx, businessSlug, locationSlug)
		if err != nil {
			return middleware.FromError(err)
		}
		if err := h.cache.Set(ctx, key, body, h.ttl); err != nil {
			h.log.Warn("render cache write failed: " + err.Error())
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(body)
	return nil
}

func (h *BusinessHandler) render(ctx context.Context, businessSlug, locationSlug string) ([]byte, error) {
	body, err := h.pages.Render(ctx, businessSlug, locationSlug)
	if err == nil || apperr.KindOf(err) != apperr.KindNotFound || locationSlug != "" || h.listings == nil {
		return body, err
	}
	listing := h.listings.FetchBySlug(ctx, businessSlug)
	if listing == nil {
		return nil, err
	}
	return h.pages.RenderListing(listing)
}
