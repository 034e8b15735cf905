package handler

import (
	"context"
	"net/http"

	"go-directory-app/internal/data"
	"go-directory-app/internal/middleware"
	"go-directory-app/internal/service"
)

// ReviewServicer defines the review operations used by the handlers.
type ReviewServicer interface {
	Submit(ctx context.Context, in service.ReviewInput, sourceAddr string) (*data.Review, error)
	List(ctx context.Context, businessSlug string) ([]*data.Review, error)
}

// ReviewHandler serves review listing and submission.
type ReviewHandler struct {
	reviews ReviewServicer
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviews ReviewServicer) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

func (h *ReviewHandler) listHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	reviews, err := h.reviews.List(r.Context(), r.URL.Query().Get("businessSlug"))
	if err != nil {
		return middleware.FromError(err)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reviews": reviews})
	return nil
}

func (h *ReviewHandler) submitHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var in service.ReviewInput
	if err := decodeJSON(w, r, &in); err != nil {
		return middleware.FromError(err)
	}
	review, err := h.reviews.Submit(r.Context(), in, clientAddr(r))
	if err != nil {
		return middleware.FromError(err)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"review": review, "success": true})
	return nil
}
