package selection

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/DrewGalowayDev/Awesome/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func ids(products []catalog.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func plain(n int) []catalog.Product {
	out := make([]catalog.Product, n)
	for i := range out {
		out[i] = catalog.Product{ID: string(rune('a' + i)), Price: 100}
	}
	return out
}

func TestSelect_FlaggedFilter(t *testing.T) {
	t.Parallel()
	products := []catalog.Product{
		{ID: "1", IsNewArrival: true},
		{ID: "2", IsFeatured: true},
		{ID: "3", Price: 80, OldPrice: ptr(100)},
		{ID: "4", OnSale: true},
		{ID: "5", IsNewArrival: true, IsDeal: true},
		{ID: "6", Price: 100, OldPrice: ptr(90)},
	}

	assert.Equal(t, []string{"1", "5"}, ids(Select(products, KindNewArrivals, 0)))
	assert.Equal(t, []string{"2"}, ids(Select(products, KindFeatured, 0)))
	assert.Equal(t, []string{"3", "4", "5"}, ids(Select(products, KindDeals, 0)))
	assert.Equal(t, []string{"1", "2"}, ids(Select(products, KindAll, 2)))
	assert.Len(t, Select(products, KindAll, 0), 6)
}

func TestSelect_FallbackIsNeverEmpty(t *testing.T) {
	t.Parallel()
	products := plain(20)
	for _, k := range []Kind{KindNewArrivals, KindFeatured, KindDeals} {
		got := Select(products, k, 0)
		assert.Len(t, got, DefaultLimit, "kind %s", k)
		assert.Equal(t, ids(products[:DefaultLimit]), ids(got), "fallback keeps input order for %s", k)
	}
	assert.Len(t, Select(products, KindNewArrivals, 4), 4)
	assert.Empty(t, Select(nil, KindFeatured, 4))
}

func TestSelect_NeverFabricates(t *testing.T) {
	t.Parallel()
	products := plain(3)
	for _, k := range []Kind{KindNewArrivals, KindFeatured, KindDeals, KindAll} {
		got := Select(products, k, 50)
		assert.Len(t, got, 3)
		for _, p := range got {
			assert.Contains(t, ids(products), p.ID)
		}
	}
}

func TestSections_HidesEmptyHideable(t *testing.T) {
	t.Parallel()
	sections := Sections(nil, DefaultViews())
	require.Len(t, sections, 6)
	for _, s := range sections {
		assert.Empty(t, s.Products)
		assert.Equal(t, s.Name == "productListCarousel", s.Hidden, s.Name)
	}

	sections = Sections(plain(5), DefaultViews())
	assert.False(t, sections[5].Hidden)
	assert.Len(t, sections[0].Products, 4)
}

func TestPartition(t *testing.T) {
	t.Parallel()
	got := Partition(plain(60), DefaultViews())
	assert.Len(t, got["justInGrid"], 4)
	assert.Len(t, got["products-tab-1"], 50)
	assert.Len(t, got["productListCarousel"], 60)
}

func TestParseKind(t *testing.T) {
	t.Parallel()
	k, ok := ParseKind("deals")
	assert.True(t, ok)
	assert.Equal(t, KindDeals, k)
	_, ok = ParseKind("bestsellers")
	assert.False(t, ok)
}

func quietLoader(l *Loader) *Loader {
	l.Logger = log.New(&bytes.Buffer{}, "", 0)
	return l
}

func failing(context.Context) ([]catalog.Product, error) { return nil, errors.New("429") }

func TestLoader_OriginOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fixed := func(ps []catalog.Product) SourceFunc {
		return func(context.Context) ([]catalog.Product, error) { return ps, nil }
	}

	snap, err := quietLoader(&Loader{Primary: fixed(plain(2)), Secondary: fixed(plain(3))}).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, OriginPrimary, snap.Origin)

	snap, err = quietLoader(&Loader{Primary: SourceFunc(failing), Secondary: fixed(plain(3))}).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, OriginSecondary, snap.Origin)
	assert.Len(t, snap.Products, 3)

	snap, err = quietLoader(&Loader{Primary: fixed(nil), Secondary: SourceFunc(failing)}).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, OriginBundled, snap.Origin)
	assert.NotEmpty(t, snap.Products)
}

func TestLoader_BundledDatasetIsNormalized(t *testing.T) {
	t.Parallel()
	snap, err := quietLoader(&Loader{}).Load(context.Background())
	require.NoError(t, err)

	byID := map[string]catalog.Product{}
	for _, p := range snap.Products {
		byID[p.ID] = p
	}
	hp := byID["bundled-hp-elitebook-840"]
	require.NotNil(t, hp.OldPrice)
	assert.Equal(t, 48000.0, *hp.OldPrice)
	assert.Equal(t, "img/products/hp-elitebook-840.png", hp.Image())
	assert.True(t, byID["bundled-dell-latitude-7490"].IsNewArrival)
	assert.True(t, byID["bundled-macbook-air-m1"].IsFeatured)
	assert.True(t, byID["bundled-hp-laserjet-m15w"].IsDeal)
}

func TestLoader_NothingAvailable(t *testing.T) {
	t.Parallel()
	l := quietLoader(&Loader{Primary: SourceFunc(failing), DisableBundled: true})
	_, err := l.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoProducts)

	page := l.Page(context.Background(), DefaultViews())
	assert.Equal(t, OriginNone, page.Origin)
	assert.True(t, page.Sections[5].Hidden)
	assert.False(t, page.Sections[0].Hidden)
}
