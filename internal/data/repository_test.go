//go:build integration

package data

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-directory-app/internal/config"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a new in-memory SQLite database with the sqlite3 migrations applied.
// It returns the database and a teardown function to be deferred.
func setupTestDB(t *testing.T) (*sqlx.DB, func()) {
	t.Helper()

	db, err := NewDB(config.DBConfig{Driver: "sqlite3", DSN: "file::memory:"})
	require.NoError(t, err)

	files, err := filepath.Glob("../../migrations/sqlite3/*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		schema, err := os.ReadFile(f)
		require.NoError(t, err)
		db.MustExec(string(schema))
	}

	return db, func() { db.Close() }
}

func sampleListing(slug, name string) *BusinessListing {
	return &BusinessListing{
		Slug:          slug,
		Name:          name,
		Category:      "restaurants",
		Description:   "Wood-fired pies",
		Address:       "1 Main St",
		City:          "Springfield",
		State:         "IL",
		ZipCode:       "62701",
		Phone:         "555-0100",
		FeaturedImage: "https://x/img.png",
		Amenities:     StringList{"wifi", "parking"},
		Hours:         Hours{Monday: "9-5"},
		Rating:        DefaultRating,
	}
}

func TestSQLListingRepository_SaveAndGet(t *testing.T) {
	db, teardown := setupTestDB(t)
	defer teardown()
	repo := NewSQLListingRepository(db)
	ctx := context.Background()

	id, err := repo.Save(ctx, sampleListing("joes-pizza", "Joe's Pizza"))
	require.NoError(t, err)
	assert.NotZero(t, id)

	found, err := repo.GetBySlug(ctx, "joes-pizza")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Joe's Pizza", found.Name)
	assert.Equal(t, StringList{"wifi", "parking"}, found.Amenities)
	assert.Equal(t, "9-5", found.Hours.Monday)

	// Saving the same slug again updates in place.
	updated := sampleListing("joes-pizza", "Joe's Famous Pizza")
	id2, err := repo.Save(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, id, id2)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Joe's Famous Pizza", all[0].Name)
}

func TestSQLListingRepository_GetBySlug_NotFound(t *testing.T) {
	db, teardown := setupTestDB(t)
	defer teardown()
	repo := NewSQLListingRepository(db)

	found, err := repo.GetBySlug(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSQLListingRepository_GetAll_RecentFirst(t *testing.T) {
	db, teardown := setupTestDB(t)
	defer teardown()
	repo := NewSQLListingRepository(db)
	ctx := context.Background()

	_, err := repo.Save(ctx, sampleListing("first", "First"))
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = repo.Save(ctx, sampleListing("second", "Second"))
	require.NoError(t, err)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "second", all[0].Slug)
	assert.Equal(t, "first", all[1].Slug)
}

func TestSQLReviewRepository(t *testing.T) {
	db, teardown := setupTestDB(t)
	defer teardown()
	repo := NewSQLReviewRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, text := range []string{"first review", "second review", "third review"} {
		rv := &Review{
			BusinessSlug: "joes-pizza",
			ReviewerName: "Pat",
			Rating:       4,
			ReviewText:   text,
			Approved:     i != 1,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.CreateReview(ctx, rv))
		assert.NotZero(t, rv.ID)
	}
	require.NoError(t, repo.CreateReview(ctx, &Review{BusinessSlug: "other", ReviewerName: "Sam", Rating: 5, ReviewText: "elsewhere!!", Approved: true}))

	reviews, err := repo.ListApproved(ctx, "joes-pizza", 20)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "third review", reviews[0].ReviewText)
	assert.Equal(t, "first review", reviews[1].ReviewText)

	limited, err := repo.ListApproved(ctx, "joes-pizza", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := repo.ListApproved(ctx, "nobody", 20)
	require.NoError(t, err)
	assert.Empty(t, none)
}
