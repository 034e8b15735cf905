package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const listingColumns = `id, slug, name, category, description, address, city, state, zip_code, phone,
	website, email, featured_image, amenities, hours, rating, review_count, created_at, updated_at`

// SQLListingRepository reads and writes business listings in the relational store.
type SQLListingRepository struct {
	db *sqlx.DB
}

// NewSQLListingRepository creates a new SQLListingRepository.
func NewSQLListingRepository(db *sqlx.DB) *SQLListingRepository {
	return &SQLListingRepository{db: db}
}

// GetAll returns every listing, most recently updated first.
func (r *SQLListingRepository) GetAll(ctx context.Context) ([]*BusinessListing, error) {
	var listings []*BusinessListing
	query := `SELECT ` + listingColumns + ` FROM listings ORDER BY updated_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &listings, query); err != nil {
		return nil, fmt.Errorf("failed to get all listings: %w", err)
	}
	return listings, nil
}

// GetBySlug returns the listing with the given slug, or nil if there is none.
func (r *SQLListingRepository) GetBySlug(ctx context.Context, slug string) (*BusinessListing, error) {
	var listing BusinessListing
	query := r.db.Rebind(`SELECT ` + listingColumns + ` FROM listings WHERE slug = ?`)
	if err := r.db.GetContext(ctx, &listing, query, slug); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found is not an error
		}
		return nil, fmt.Errorf("failed to get listing by slug: %w", err)
	}
	return &listing, nil
}

// Save inserts the listing, or updates the existing row with the same slug.
// It returns the row ID.
func (r *SQLListingRepository) Save(ctx context.Context, listing *BusinessListing) (int64, error) {
	now := time.Now().UTC()
	listing.UpdatedAt = now

	existing, err := r.GetBySlug(ctx, listing.Slug)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		listing.ID = existing.ID
		listing.CreatedAt = existing.CreatedAt
		query := `UPDATE listings SET name = :name, category = :category, description = :description,
			address = :address, city = :city, state = :state, zip_code = :zip_code, phone = :phone,
			website = :website, email = :email, featured_image = :featured_image, amenities = :amenities,
			hours = :hours, rating = :rating, review_count = :review_count, updated_at = :updated_at
			WHERE id = :id`
		if _, err := r.db.NamedExecContext(ctx, query, listing); err != nil {
			return 0, fmt.Errorf("failed to update listing: %w", err)
		}
		return listing.ID, nil
	}

	listing.CreatedAt = now
	query := `INSERT INTO listings (slug, name, category, description, address, city, state, zip_code, phone,
		website, email, featured_image, amenities, hours, rating, review_count, created_at, updated_at)
		VALUES (:slug, :name, :category, :description, :address, :city, :state, :zip_code, :phone,
		:website, :email, :featured_image, :amenities, :hours, :rating, :review_count, :created_at, :updated_at)`
	id, err := insertReturningID(ctx, r.db, query, listing)
	if err != nil {
		return 0, fmt.Errorf("failed to insert listing: %w", err)
	}
	listing.ID = id
	return id, nil
}

// insertReturningID runs a named INSERT and reports the new row's ID. Postgres
// has no LastInsertId, so a RETURNING clause is used there instead.
func insertReturningID(ctx context.Context, db *sqlx.DB, query string, arg any) (int64, error) {
	if db.DriverName() == "pgx" {
		stmt, err := db.PrepareNamedContext(ctx, query+" RETURNING id")
		if err != nil {
			return 0, err
		}
		defer stmt.Close()
		var id int64
		if err := stmt.GetContext(ctx, &id, arg); err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := db.NamedExecContext(ctx, query, arg)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
