package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/domainmart/internal/catalog"
	"github.com/alanyoungcy/domainmart/internal/domain"
)

type catalogFixture struct {
	svc   *CatalogService
	doms  *memDomains
	cats  *memCategories
	cache *memCache
	bus   *memBus
	audit *memAudit
}

func newCatalogFixture() *catalogFixture {
	cats := newMemCategories()
	f := &catalogFixture{
		doms:  newMemDomains(cats),
		cats:  cats,
		cache: &memCache{},
		bus:   newMemBus(),
		audit: &memAudit{},
	}
	f.svc = NewCatalogService(f.doms, cats, &memTags{byID: map[string]domain.Tag{}}, f.cache, f.bus, f.audit, testLogger())
	return f
}

func (f *catalogFixture) seed(t *testing.T, name, categoryID string, priceCents int64, status domain.DomainStatus) domain.Domain {
	t.Helper()
	d := domain.Domain{ID: newID(), Name: name, CategoryID: categoryID, PriceCents: priceCents, Status: status}
	d.Normalize()
	require.NoError(t, f.doms.Create(context.Background(), d))
	return d
}

func TestCatalogService_BrowseFillsCacheOnce(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()
	require.NoError(t, f.cats.Create(ctx, domain.Category{ID: "c-tech", Name: "Tech"}))
	f.seed(t, "alpha.com", "c-tech", 500000, domain.DomainStatusAvailable)
	f.seed(t, "beta.io", "", 120000, domain.DomainStatusAvailable)
	f.seed(t, "gamma.com", "c-tech", 90000, domain.DomainStatusSold)

	res, err := f.svc.Browse(ctx, catalog.Filter{Categories: []string{"Tech"}, SortBy: catalog.SortPriceLow})
	require.NoError(t, err)
	require.Equal(t, 2, res.Total)
	assert.Equal(t, "gamma.com", res.Domains[0].Name)
	assert.Equal(t, "alpha.com", res.Domains[1].Name)
	assert.True(t, f.cache.set)

	_, err = f.svc.Browse(ctx, catalog.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.doms.listPub, "second browse should be served from cache")
}

func TestCatalogService_BrowseEmptyFilterKeepsNewestFirst(t *testing.T) {
	f := newCatalogFixture()
	f.seed(t, "first.com", "", 100, domain.DomainStatusAvailable)
	f.seed(t, "second.com", "", 100, domain.DomainStatusAvailable)

	res, err := f.svc.Browse(context.Background(), catalog.Filter{})
	require.NoError(t, err)
	require.Len(t, res.Domains, 2)
	assert.Equal(t, "second.com", res.Domains[0].Name)
}

func TestCatalogService_CreateDomain(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()
	require.NoError(t, f.cache.SetAll(ctx, nil))

	d, err := f.svc.CreateDomain(ctx, "admin-1", DomainInput{Name: " Shop.COM ", PriceCents: 250000})
	require.NoError(t, err)
	assert.Equal(t, "shop.com", d.Name)
	assert.Equal(t, "shop-com", d.Slug)
	assert.Equal(t, ".com", d.Extension)
	assert.Equal(t, 4, d.Length)
	assert.Equal(t, domain.DomainStatusAvailable, d.Status)

	assert.False(t, f.cache.set, "write should invalidate the listing cache")
	assert.Equal(t, 1, f.bus.count(domain.ChannelDomains))
	assert.Contains(t, f.audit.events, "domain.create")

	_, err = f.svc.CreateDomain(ctx, "admin-1", DomainInput{Name: "shop.com"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestCatalogService_CreateDomainValidation(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()

	tests := []struct {
		name string
		in   DomainInput
	}{
		{"no extension", DomainInput{Name: "shop"}},
		{"negative price", DomainInput{Name: "shop.com", PriceCents: -1}},
		{"bad status", DomainInput{Name: "shop.com", Status: "gone"}},
		{"unknown category", DomainInput{Name: "shop.com", CategoryID: "missing"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateDomain(ctx, "admin-1", tt.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Empty(t, f.doms.byID)
}

func TestCatalogService_UpdateDomainRenamesSlug(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()
	orig := f.seed(t, "old.com", "", 100, domain.DomainStatusAvailable)

	d, err := f.svc.UpdateDomain(ctx, "admin-1", orig.ID, DomainInput{Name: "new.net", PriceCents: 900})
	require.NoError(t, err)
	assert.Equal(t, "new-net", d.Slug)
	assert.Equal(t, ".net", d.Extension)

	_, err = f.svc.UpdateDomain(ctx, "admin-1", "missing", DomainInput{Name: "x.com"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCatalogService_SetStatusAndDelete(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()
	d := f.seed(t, "shop.com", "", 100, domain.DomainStatusAvailable)

	got, err := f.svc.SetDomainStatus(ctx, "admin-1", d.ID, domain.DomainStatusAuction)
	require.NoError(t, err)
	assert.Equal(t, domain.DomainStatusAuction, got.Status)

	_, err = f.svc.SetDomainStatus(ctx, "admin-1", d.ID, "bogus")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, f.svc.DeleteDomain(ctx, "admin-1", d.ID))
	assert.ErrorIs(t, f.svc.DeleteDomain(ctx, "admin-1", d.ID), domain.ErrNotFound)
	assert.Equal(t, []string{"domain.status", "domain.delete"}, f.audit.events)
}

func TestCatalogService_AdminListPaginatesFilteredResults(t *testing.T) {
	f := newCatalogFixture()
	for i, name := range []string{"a.com", "b.com", "c.io", "d.com"} {
		f.seed(t, name, "", int64(i+1)*10000, domain.DomainStatusAvailable)
	}

	page, err := f.svc.AdminList(context.Background(),
		catalog.Filter{Extensions: []string{".com"}, SortBy: catalog.SortPriceHigh},
		domain.ListOpts{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "b.com", page.Items[0].Name)
	assert.Equal(t, "a.com", page.Items[1].Name)

	page, err = f.svc.AdminList(context.Background(), catalog.Filter{}, domain.ListOpts{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 4, page.Total)
	assert.Len(t, page.Items, 4)
}

func TestCatalogService_Taxonomy(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()

	c, err := f.svc.CreateCategory(ctx, "admin-1", CategoryInput{Name: "Short Names"})
	require.NoError(t, err)
	assert.Equal(t, "short-names", c.Slug)

	_, err = f.svc.CreateCategory(ctx, "admin-1", CategoryInput{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	tag, err := f.svc.CreateTag(ctx, "admin-1", "Brandable")
	require.NoError(t, err)
	assert.Equal(t, "brandable", tag.Slug)
}

func TestPaginate(t *testing.T) {
	in := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, paginate(in, 2, 2))
	assert.Equal(t, []int{4, 5}, paginate(in, 0, 3))
	assert.Equal(t, []int{}, paginate(in, 2, 9))
}

func TestEffects_PublishesEventEnvelope(t *testing.T) {
	bus := newMemBus()
	fx := newEffects(bus, nil, nil, testLogger())
	fx.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

	fx.publish(context.Background(), domain.ChannelOrders, "order.created", "o-1", map[string]any{"x": 1})
	require.Equal(t, 1, bus.count(domain.ChannelOrders))
	assert.JSONEq(t,
		`{"type":"order.created","id":"o-1","data":{"x":1},"timestamp":"2026-03-01T10:00:00Z"}`,
		string(bus.published[domain.ChannelOrders][0]))

	// Nil collaborators are skipped.
	newEffects(nil, nil, nil, nil).record(context.Background(), "x", "y", nil)
}
