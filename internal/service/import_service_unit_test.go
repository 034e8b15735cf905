//go:build unit

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-directory-app/internal/apperr"
	"go-directory-app/internal/data"
	"go-directory-app/internal/logger"
)

type mockCMSWriter struct {
	errToReturn error
	last        *data.BusinessListing
}

func (m *mockCMSWriter) Upsert(_ context.Context, l *data.BusinessListing) (string, error) {
	if m.errToReturn != nil {
		return "", m.errToReturn
	}
	m.last = l
	return "65f0c0ffee0000000000abcd", nil
}

type mockInvalidator struct {
	paths []string
}

func (m *mockInvalidator) Invalidate(_ context.Context, paths ...string) error {
	m.paths = append(m.paths, paths...)
	return errors.New("cache closed")
}

type mockListingSaver struct {
	last *data.BusinessListing
}

func (m *mockListingSaver) Save(_ context.Context, l *data.BusinessListing) (int64, error) {
	m.last = l
	return 42, nil
}

func TestImportService_Import(t *testing.T) {
	cms := &mockCMSWriter{}
	db := &mockListingSaver{}
	inv := &mockInvalidator{}
	s := NewImportService(cms, db, inv, logger.Nop())
	ctx := context.Background()

	id, err := s.Import(ctx, &data.BusinessListing{Name: "Joe's Pizza", Category: "Restaurants"}, "")
	require.NoError(t, err)
	assert.Equal(t, "65f0c0ffee0000000000abcd", id)
	require.NotNil(t, cms.last)
	assert.Equal(t, "joes-pizza", cms.last.Slug)
	assert.Equal(t, data.DefaultRating, cms.last.Rating)
	assert.NotNil(t, cms.last.Amenities)

	id, err = s.Import(ctx, &data.BusinessListing{Name: "Sal's Subs", Slug: "Sals Subs"}, "db")
	require.NoError(t, err)
	assert.Equal(t, "42", id)
	assert.Equal(t, "sals-subs", db.last.Slug)
	assert.Equal(t, []string{"/businesses/joes-pizza", "/businesses/sals-subs"}, inv.paths)
}

func TestImportService_Import_Errors(t *testing.T) {
	ctx := context.Background()

	s := NewImportService(&mockCMSWriter{}, nil, nil, logger.Nop())
	_, err := s.Import(ctx, nil, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = s.Import(ctx, &data.BusinessListing{Name: " "}, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = s.Import(ctx, &data.BusinessListing{Name: "X"}, "ftp")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = s.Import(ctx, &data.BusinessListing{Name: "X"}, "db")
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))

	failing := NewImportService(&mockCMSWriter{errToReturn: errors.New("write concern")}, nil, nil, logger.Nop())
	_, err = failing.Import(ctx, &data.BusinessListing{Name: "X"}, "cms")
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
}
