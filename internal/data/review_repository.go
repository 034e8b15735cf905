package data

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLReviewRepository stores visitor reviews.
type SQLReviewRepository struct {
	db *sqlx.DB
}

// NewSQLReviewRepository creates a new SQLReviewRepository.
func NewSQLReviewRepository(db *sqlx.DB) *SQLReviewRepository {
	return &SQLReviewRepository{db: db}
}

// CreateReview inserts a review and fills in its ID and creation time.
func (r *SQLReviewRepository) CreateReview(ctx context.Context, review *Review) error {
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO reviews (business_slug, reviewer_name, rating, review_text, approved, source_addr, created_at)
		VALUES (:business_slug, :reviewer_name, :rating, :review_text, :approved, :source_addr, :created_at)`
	id, err := insertReturningID(ctx, r.db, query, review)
	if err != nil {
		return fmt.Errorf("failed to execute create review query: %w", err)
	}
	review.ID = id
	return nil
}

// ListApproved returns up to limit approved reviews for a business, newest first.
func (r *SQLReviewRepository) ListApproved(ctx context.Context, businessSlug string, limit int) ([]*Review, error) {
	reviews := []*Review{}
	query := r.db.Rebind(`SELECT id, business_slug, reviewer_name, rating, review_text, approved, source_addr, created_at
		FROM reviews WHERE business_slug = ? AND approved = ? ORDER BY created_at DESC, id DESC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &reviews, query, businessSlug, true, limit); err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}
