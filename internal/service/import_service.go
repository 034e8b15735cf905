package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go-directory-app/internal/apperr"
	"go-directory-app/internal/data"
	"go-directory-app/internal/logger"
	"go-directory-app/internal/pagegen"
	"go-directory-app/internal/slug"
)

// Import targets.
const (
	TargetCMS = "cms"
	TargetDB  = "db"
)

// CMSWriter upserts listings into the CMS.
type CMSWriter interface {
	Upsert(ctx context.Context, l *data.BusinessListing) (string, error)
}

// ListingSaver upserts listings into the relational store.
type ListingSaver interface {
	Save(ctx context.Context, l *data.BusinessListing) (int64, error)
}

// Invalidator marks cached renderings of URL paths as stale.
type Invalidator interface {
	Invalidate(ctx context.Context, paths ...string) error
}

// ImportService writes externally supplied listings into a listing source.
type ImportService struct {
	cms CMSWriter
	db  ListingSaver
	inv Invalidator
	log logger.Logger
}

// NewImportService creates an ImportService. Either writer may be nil when
// that store is not configured, and inv may be nil.
func NewImportService(cms CMSWriter, db ListingSaver, inv Invalidator, log logger.Logger) *ImportService {
	return &ImportService{cms: cms, db: db, inv: inv, log: log}
}

// Import stores l in target ("cms" when empty) and returns its id there.
func (s *ImportService) Import(ctx context.Context, l *data.BusinessListing, target string) (string, error) {
	if l == nil {
		return "", apperr.Validation("missing listing payload")
	}
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		return "", apperr.Validation("missing required field: name")
	}
	l.Slug = slug.From(l.Slug, l.Name)
	if l.Slug == "" {
		return "", apperr.Validation("invalid field: slug")
	}
	if l.Rating == 0 {
		l.Rating = data.DefaultRating
	}
	if l.Amenities == nil {
		l.Amenities = data.StringList{}
	}

	switch strings.ToLower(strings.TrimSpace(target)) {
	case "", TargetCMS:
		if s.cms == nil {
			return "", apperr.Storage("failed to import listing", fmt.Errorf("cms is not configured"))
		}
		id, err := s.cms.Upsert(ctx, l)
		if err != nil {
			return "", apperr.Storage("failed to write listing to the CMS", err)
		}
		s.log.Info(fmt.Sprintf("imported listing %s into cms as %s", l.Slug, id))
		s.invalidate(ctx, l.Slug)
		return id, nil
	case TargetDB:
		if s.db == nil {
			return "", apperr.Storage("failed to import listing", fmt.Errorf("database is not configured"))
		}
		id, err := s.db.Save(ctx, l)
		if err != nil {
			return "", apperr.Storage("failed to write listing to the database", err)
		}
		s.log.Info(fmt.Sprintf("imported listing %s into db as %d", l.Slug, id))
		s.invalidate(ctx, l.Slug)
		return strconv.FormatInt(id, 10), nil
	default:
		return "", apperr.Validation("unknown import target: %s", target)
	}
}

// invalidate drops a cached rendering of the imported business. Failures are
// logged only.
func (s *ImportService) invalidate(ctx context.Context, listingSlug string) {
	if s.inv == nil {
		return
	}
	if err := s.inv.Invalidate(ctx, pagegen.BusinessPath(listingSlug, "")); err != nil {
		s.log.Warn(fmt.Sprintf("failed to invalidate cached page of %s: %v", listingSlug, err))
	}
}
