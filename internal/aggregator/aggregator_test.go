//go:build unit

package aggregator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-directory-app/internal/data"
	"go-directory-app/internal/logger"
)

// memCMS filters in memory the way the real store filters server side.
type memCMS struct {
	listings []*data.BusinessListing
	err      error
	queries  []data.ListingQuery
}

func (m *memCMS) Find(_ context.Context, q data.ListingQuery) ([]*data.BusinessListing, error) {
	m.queries = append(m.queries, q)
	if m.err != nil {
		return nil, m.err
	}
	return q.Filter(m.listings), nil
}

func (m *memCMS) FindBySlug(ctx context.Context, slug string) (*data.BusinessListing, error) {
	found, err := m.Find(ctx, data.ListingQuery{Slug: slug})
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

type memRepo struct {
	listings []*data.BusinessListing
	err      error
}

func (m *memRepo) GetAll(context.Context) ([]*data.BusinessListing, error) {
	return m.listings, m.err
}

func (m *memRepo) GetBySlug(_ context.Context, slug string) (*data.BusinessListing, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, l := range m.listings {
		if l.Slug == slug {
			return l, nil
		}
	}
	return nil, nil
}

func corpus() []*data.BusinessListing {
	return []*data.BusinessListing{
		{Slug: "joes-pizza", Name: "Joe's Pizza", Category: "Restaurants", City: "Springfield", Description: "Wood-fired pizza"},
		{Slug: "sals-subs", Name: "Sal's Subs", Category: "Restaurants", City: "Shelbyville", Description: "Hoagies and heroes"},
		{Slug: "quick-fix", Name: "Quick Fix Plumbing", Category: "Plumbers", City: "Springfield", Description: "24 hour service"},
	}
}

func slugs(ls []*data.BusinessListing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Slug
	}
	return out
}

func newStatic(t *testing.T) ListingSource {
	t.Helper()
	s, err := StaticSource()
	require.NoError(t, err)
	return s
}

func TestFetchAll_PrimaryWins(t *testing.T) {
	repo := &memRepo{listings: corpus()[:1]}
	a := New(Sources{Relational: RelationalSource(repo), Static: newStatic(t)}, logger.Nop())

	got := a.FetchAll(context.Background())
	assert.Equal(t, []string{"joes-pizza"}, slugs(got))
}

func TestFetchAll_FallsBackToStatic(t *testing.T) {
	static := newStatic(t)
	want, err := static.Find(context.Background(), data.ListingQuery{})
	require.NoError(t, err)
	require.NotEmpty(t, want)

	for name, repo := range map[string]*memRepo{
		"empty":       {},
		"unreachable": {err: errors.New("connection refused")},
	} {
		t.Run(name, func(t *testing.T) {
			a := New(Sources{Relational: RelationalSource(repo), Static: static}, logger.Nop())
			assert.Equal(t, slugs(want), slugs(a.FetchAll(context.Background())))
		})
	}
}

func TestFetchByCategory(t *testing.T) {
	cms := &memCMS{listings: corpus()}
	a := New(Sources{CMS: CMSSource(cms), Static: newStatic(t)}, logger.Nop())

	got := a.FetchByCategory(context.Background(), "restaurants")
	assert.Equal(t, []string{"joes-pizza", "sals-subs"}, slugs(got))

	assert.Empty(t, a.FetchByCategory(context.Background(), "florists"))
}

func TestFetchByCategory_UnreachableCMS(t *testing.T) {
	cms := &memCMS{err: errors.New("server selection timeout")}
	a := New(Sources{CMS: CMSSource(cms), Static: newStatic(t)}, logger.Nop())

	got := a.FetchByCategory(context.Background(), "restaurants")
	assert.NotNil(t, got)
	assert.Empty(t, got)

	none := New(Sources{}, logger.Nop())
	assert.NotNil(t, none.FetchByCategory(context.Background(), "restaurants"))
}

func TestSearch(t *testing.T) {
	cms := &memCMS{listings: corpus()}
	a := New(Sources{CMS: CMSSource(cms)}, logger.Nop())
	ctx := context.Background()

	assert.Equal(t, []string{"joes-pizza"}, slugs(a.Search(ctx, "PIZ", "", "")))
	assert.Equal(t, []string{"joes-pizza", "quick-fix"}, slugs(a.Search(ctx, "", "springfield", "")))
	assert.Equal(t, []string{"joes-pizza"}, slugs(a.Search(ctx, "", "springfield", "Restaurants")))

	last := cms.queries[len(cms.queries)-1]
	assert.Equal(t, "restaurants", last.Category)
}

func TestSearch_FallsBackToEverything(t *testing.T) {
	cms := &memCMS{listings: corpus()}
	a := New(Sources{CMS: CMSSource(cms)}, logger.Nop())
	ctx := context.Background()
	all := slugs(corpus())

	assert.Equal(t, all, slugs(a.Search(ctx, "", "", "")))
	assert.Equal(t, all, slugs(a.Search(ctx, "zzzznonexistentzzzz", "", "")))
	assert.Equal(t, all, slugs(a.Search(ctx, "pizza", "Shelbyville", "")))
}

func TestSearch_EmptyCorpus(t *testing.T) {
	a := New(Sources{CMS: CMSSource(&memCMS{})}, logger.Nop())
	got := a.Search(context.Background(), "pizza", "", "")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearch_WithoutCMS(t *testing.T) {
	a := New(Sources{Relational: RelationalSource(&memRepo{listings: corpus()}), Static: newStatic(t)}, logger.Nop())
	got := a.Search(context.Background(), "", "", "")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStaticSource_ResultsAreCopies(t *testing.T) {
	static := newStatic(t)
	ctx := context.Background()

	first, err := static.Find(ctx, data.ListingQuery{})
	require.NoError(t, err)
	require.NotEmpty(t, first)
	first[0].Name = "Changed"
	if len(first[0].Amenities) > 0 {
		first[0].Amenities[0] = "changed"
	}

	again, err := static.Find(ctx, data.ListingQuery{})
	require.NoError(t, err)
	assert.Equal(t, "Harbor Light Coffee", again[0].Name)
	assert.NotContains(t, again[0].Amenities, "changed")
}

func TestFetchBySlug(t *testing.T) {
	cms := &memCMS{listings: corpus()[:1]}
	repo := &memRepo{listings: corpus()[1:2]}
	a := New(Sources{CMS: CMSSource(cms), Relational: RelationalSource(repo), Static: newStatic(t)}, logger.Nop())
	ctx := context.Background()

	got := a.FetchBySlug(ctx, "joes-pizza")
	require.NotNil(t, got)
	assert.Equal(t, "Joe's Pizza", got.Name)

	got = a.FetchBySlug(ctx, "Sals Subs")
	require.NotNil(t, got)
	assert.Equal(t, "sals-subs", got.Slug)

	got = a.FetchBySlug(ctx, "harbor-light-coffee")
	require.NotNil(t, got)
	assert.Equal(t, "Cafes", got.Category)

	assert.Nil(t, a.FetchBySlug(ctx, "nope"))
	assert.Nil(t, a.FetchBySlug(ctx, "!!!"))
}

func TestChain_SkipsFailingSources(t *testing.T) {
	failing := CMSSource(&memCMS{err: errors.New("boom")})
	empty := RelationalSource(&memRepo{})
	good := RelationalSource(&memRepo{listings: corpus()})

	c := NewChain(logger.Nop(), failing, nil, empty, good)
	got := c.Find(context.Background(), data.ListingQuery{Slug: "quick-fix"})
	assert.Equal(t, []string{"quick-fix"}, slugs(got))
}
