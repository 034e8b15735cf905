package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"go-directory-app/internal/apperr"
	"go-directory-app/internal/data"
	"go-directory-app/internal/logger"
	"go-directory-app/internal/ratelimit"
	"go-directory-app/internal/slug"
	"go-directory-app/internal/validation"
)

// MaxListedReviews caps the reviews returned for one business.
const MaxListedReviews = 20

// ReviewRepository defines the storage operations on reviews.
type ReviewRepository interface {
	CreateReview(ctx context.Context, review *data.Review) error
	ListApproved(ctx context.Context, businessSlug string, limit int) ([]*data.Review, error)
}

// RateLimiter decides whether a client may submit another review.
type RateLimiter interface {
	Allow(ctx context.Context, client string) (ratelimit.Decision, error)
}

// ReviewInput is the payload of a review submission.
type ReviewInput struct {
	BusinessSlug string `json:"businessSlug" validate:"required"`
	ReviewerName string `json:"reviewerName" validate:"required,max=100"`
	Rating       int    `json:"rating" validate:"min=1,max=5"`
	ReviewText   string `json:"reviewText" validate:"required,min=10,max=1000"`
}

// ReviewService accepts and lists visitor reviews.
type ReviewService struct {
	repo      ReviewRepository
	limiter   RateLimiter
	sanitizer *bluemonday.Policy
	validate  *validator.Validate
	log       logger.Logger
}

// NewReviewService creates a ReviewService. Reviews carry plain text only, so
// every tag is stripped.
func NewReviewService(repo ReviewRepository, limiter RateLimiter, log logger.Logger) *ReviewService {
	return &ReviewService{
		repo:      repo,
		limiter:   limiter,
		sanitizer: bluemonday.StrictPolicy(),
		validate:  validation.New(),
		log:       log,
	}
}

// Submit validates and stores a review from sourceAddr. Reviews are approved
// on submission. Markup is stripped before validation, so the length limits
// hold for the stored text. Validation happens before the submission counts
// against the client's quota.
func (s *ReviewService) Submit(ctx context.Context, in ReviewInput, sourceAddr string) (*data.Review, error) {
	in.BusinessSlug = slug.Normalize(in.BusinessSlug)
	in.ReviewerName = s.plainText(in.ReviewerName)
	in.ReviewText = s.plainText(in.ReviewText)
	if err := validation.Struct(s.validate, in); err != nil {
		return nil, err
	}

	decision, err := s.limiter.Allow(ctx, sourceAddr)
	if err != nil {
		return nil, apperr.Storage("failed to check submission rate", err)
	}
	if !decision.Allowed {
		s.log.Info(fmt.Sprintf("review from %s rejected: rate limited until %s", sourceAddr, decision.ResetAt.Format("15:04:05")))
		return nil, apperr.RateLimited("too many reviews submitted, please try again later")
	}

	review := &data.Review{
		BusinessSlug: in.BusinessSlug,
		ReviewerName: in.ReviewerName,
		Rating:       in.Rating,
		ReviewText:   in.ReviewText,
		Approved:     true,
		SourceAddr:   sourceAddr,
	}
	if err := s.repo.CreateReview(ctx, review); err != nil {
		return nil, apperr.Storage("failed to save review", err)
	}
	return review, nil
}

// plainText strips every tag from v. The policy escapes what it keeps, so the
// entities are decoded again; templates and JSON encoding escape on output.
func (s *ReviewService) plainText(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(v)))
}

// List returns the newest approved reviews of a business.
func (s *ReviewService) List(ctx context.Context, businessSlug string) ([]*data.Review, error) {
	businessSlug = slug.Normalize(businessSlug)
	if businessSlug == "" {
		return nil, apperr.Validation("missing required field: businessSlug")
	}
	reviews, err := s.repo.ListApproved(ctx, businessSlug, MaxListedReviews)
	if err != nil {
		return nil, apperr.Storage("failed to load reviews", err)
	}
	return reviews, nil
}
