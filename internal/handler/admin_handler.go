package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-directory-app/internal/apperr"
	"go-directory-app/internal/data"
	"go-directory-app/internal/logger"
	"go-directory-app/internal/middleware"
	"go-directory-app/internal/pagegen"
)

// Importer writes a listing record into one of the listing stores.
type Importer interface {
	Import(ctx context.Context, l *data.BusinessListing, target string) (string, error)
}

// AdminHandler serves the page-tree management and import endpoints.
type AdminHandler struct {
	pages   *pagegen.Generator
	imports Importer
	log     logger.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(pages *pagegen.Generator, imports Importer, log logger.Logger) *AdminHandler {
	return &AdminHandler{pages: pages, imports: imports, log: log}
}

// getBusinessHandler returns the stored data file of a business or location.
func (h *AdminHandler) getBusinessHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	raw, err := h.pages.ReadRaw(r.Context(), chi.URLParam(r, "slug"), r.URL.Query().Get("location"))
	if err != nil {
		return middleware.FromError(err)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(raw)
	return nil
}

// putBusinessHandler merges the posted fields into the stored data file.
func (h *AdminHandler) putBusinessHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var fields map[string]interface{}
	if err := decodeJSON(w, r, &fields); err != nil {
		return middleware.FromError(err)
	}
	if err := h.pages.Update(r.Context(), chi.URLParam(r, "slug"), r.URL.Query().Get("location"), fields); err != nil {
		return middleware.FromError(err)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
	return nil
}

// createBusinessHandler writes a new business and its location pages.
func (h *AdminHandler) createBusinessHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var in pagegen.BusinessInput
	if err := decodeJSON(w, r, &in); err != nil {
		return middleware.FromError(err)
	}
	res, err := h.pages.Create(r.Context(), in)
	if err != nil {
		return middleware.FromError(err)
	}
	h.log.Info("business created by " + middleware.GetUserInfo(r.Context()).Subject + ": " + res.Slug)
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "slug": res.Slug, "locations": res.Locations})
	return nil
}

type deleteRequest struct {
	Slug     string `json:"slug"`
	Location string `json:"location"`
}

// deleteBusinessHandler removes a business, or one of its locations. There is
// no server-side confirmation step.
func (h *AdminHandler) deleteBusinessHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var req deleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return middleware.FromError(err)
	}
	if err := h.pages.Delete(r.Context(), req.Slug, req.Location); err != nil {
		return middleware.FromError(err)
	}
	h.log.Info("business deleted by " + middleware.GetUserInfo(r.Context()).Subject + ": " + pagegen.BusinessPath(req.Slug, req.Location))
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
	return nil
}

// importListingHandler upserts one listing into the CMS, or into the
// relational store with ?target=db.
func (h *AdminHandler) importListingHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var listing *data.BusinessListing
	if err := decodeJSON(w, r, &listing); err != nil {
		if errors.Is(err, errEmptyBody) {
			return middleware.FromError(apperr.Validation("missing listing payload"))
		}
		return middleware.FromError(err)
	}
	id, err := h.imports.Import(r.Context(), listing, r.URL.Query().Get("target"))
	if err != nil {
		return middleware.FromError(err)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "id": id})
	return nil
}
