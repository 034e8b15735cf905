package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-directory-app/internal/apperr"
	"go-directory-app/internal/data"
	"go-directory-app/internal/logger"
	"go-directory-app/internal/middleware"
	"go-directory-app/internal/view"
)

// Listings is the read side of the listing aggregator. None of its
// operations fail; a degraded source yields fewer results.
type Listings interface {
	FetchAll(ctx context.Context) []*data.BusinessListing
	FetchByCategory(ctx context.Context, categorySlug string) []*data.BusinessListing
	Search(ctx context.Context, query, location, category string) []*data.BusinessListing
	FetchBySlug(ctx context.Context, slug string) *data.BusinessListing
}

// ListingHandler serves the public listing pages and the JSON listing API.
type ListingHandler struct {
	listings Listings
	view     *view.View
	log      logger.Logger
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(listings Listings, v *view.View, log logger.Logger) *ListingHandler {
	return &ListingHandler{listings: listings, view: v, log: log}
}

func (h *ListingHandler) homeHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	data := map[string]interface{}{
		"Listings": h.listings.FetchAll(r.Context()),
	}
	if err := h.view.Render(w, r, "home.html", data); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render home page", Code: http.StatusInternalServerError}
	}
	return nil
}

func (h *ListingHandler) categoryHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	categorySlug := chi.URLParam(r, "slug")
	listings := h.listings.FetchByCategory(r.Context(), categorySlug)

	heading := strings.ReplaceAll(categorySlug, "-", " ")
	if len(listings) > 0 && listings[0].Category != "" {
		heading = listings[0].Category
	}
	data := map[string]interface{}{
		"Heading":  heading,
		"Listings": listings,
	}
	if err := h.view.Render(w, r, "listings.html", data); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render category page", Code: http.StatusInternalServerError}
	}
	return nil
}

func (h *ListingHandler) searchHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	q := r.URL.Query()
	heading := "All businesses"
	if s := strings.TrimSpace(q.Get("q")); s != "" {
		heading = "Results for “" + s + "”"
	}
	data := map[string]interface{}{
		"Heading":  heading,
		"Query":    q.Get("q"),
		"Location": q.Get("location"),
		"Listings": h.listings.Search(r.Context(), q.Get("q"), q.Get("location"), q.Get("category")),
	}
	if err := h.view.Render(w, r, "listings.html", data); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render search page", Code: http.StatusInternalServerError}
	}
	return nil
}

func (h *ListingHandler) apiListHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var listings []*data.BusinessListing
	if category := r.URL.Query().Get("category"); category != "" {
		listings = h.listings.FetchByCategory(r.Context(), category)
	} else {
		listings = h.listings.FetchAll(r.Context())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"listings": listings})
	return nil
}

func (h *ListingHandler) apiGetHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	slug := chi.URLParam(r, "slug")
	listing := h.listings.FetchBySlug(r.Context(), slug)
	if listing == nil {
		return middleware.FromError(apperr.NotFound("listing %s not found", slug))
	}
	writeJSON(w, http.StatusOK, listing)
	return nil
}

func (h *ListingHandler) apiSearchHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	q := r.URL.Query()
	listings := h.listings.Search(r.Context(), q.Get("q"), q.Get("location"), q.Get("category"))
	writeJSON(w, http.StatusOK, map[string]interface{}{"listings": listings})
	return nil
}
