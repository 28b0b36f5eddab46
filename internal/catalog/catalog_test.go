package catalog

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestNormalize_Aliases(t *testing.T) {
	t.Parallel()
	p, ok := Normalize(map[string]any{
		"_id":            "abc",
		"title":          "ThinkPad",
		"brand":          "Lenovo",
		"price":          "35000",
		"original_price": 39000.0,
		"stock":          4.0,
		"categories":     map[string]any{"name": "Laptops"},
		"condition":      "Refurbished",
		"image_url":      "img/t480.png",
		"is_new":         true,
		"featured":       true,
		"deal":           "true",
		"specs":          map[string]any{"ram": "8GB", "cores": 4.0},
		"created_at":     "2026-10-01T10:00:00Z",
	})
	require.True(t, ok)
	assert.Equal(t, "abc", p.ID)
	assert.Equal(t, "ThinkPad", p.Name)
	assert.Equal(t, 35000.0, p.Price)
	require.NotNil(t, p.OldPrice)
	assert.Equal(t, 39000.0, *p.OldPrice)
	assert.Equal(t, 4, p.Stock)
	assert.Equal(t, "Laptops", p.Category)
	assert.Equal(t, ConditionRefurbished, p.Condition)
	assert.Equal(t, "img/t480.png", p.Image())
	assert.True(t, p.IsNewArrival)
	assert.True(t, p.IsFeatured)
	assert.True(t, p.IsDeal)
	assert.Equal(t, map[string]string{"ram": "8GB", "cores": "4"}, p.Specs)
	assert.Equal(t, time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC), p.CreatedAt)
	assert.True(t, p.Discounted())
}

func TestNormalize_RequiresID(t *testing.T) {
	t.Parallel()
	_, ok := Normalize(map[string]any{"name": "No id"})
	assert.False(t, ok)
}

func TestDecodeProducts_Shapes(t *testing.T) {
	t.Parallel()
	for _, payload := range []string{
		`[{"id":"1"},{"id":"2"},{"name":"skip"}]`,
		`{"success":true,"products":[{"id":"1"},{"id":"2"}]}`,
		`{"data":[{"product_id":"1"},{"id":2}]}`,
	} {
		got, err := DecodeProducts([]byte(payload))
		require.NoError(t, err, payload)
		assert.Len(t, got, 2, payload)
	}
	_, err := DecodeProducts([]byte(`{oops`))
	assert.Error(t, err)
}

func TestListParams_Normalized(t *testing.T) {
	t.Parallel()
	got := ListParams{Page: 0, Limit: 5000, Sort: "drop table", Order: "sideways"}.Normalized()
	assert.Equal(t, ListParams{Page: 1, Limit: DefaultListLimit, Sort: DefaultSort, Order: "desc"}, got)

	got = ListParams{Page: 3, Limit: 20, Sort: "price", Order: "asc"}.Normalized()
	assert.Equal(t, ListParams{Page: 3, Limit: 20, Sort: "price", Order: "asc"}, got)
	assert.Equal(t, int64(40), *got.findOptions().Skip)
}

func TestBuildFilter(t *testing.T) {
	t.Parallel()
	lo, hi := 1000.0, 5000.0
	got := BuildFilter(FilterParams{MinPrice: &lo, MaxPrice: &hi, Brand: "HP", Condition: "new", Category: "c1", InStock: true})
	assert.Equal(t, bson.M{
		"price":       bson.M{"$gte": 1000.0, "$lte": 5000.0},
		"brand":       "HP",
		"condition":   "new",
		"category_id": "c1",
		"stock":       bson.M{"$gt": 0},
	}, got)
	assert.Empty(t, BuildFilter(FilterParams{}))
}

func TestSearchFilter_QuotesInput(t *testing.T) {
	t.Parallel()
	f := SearchFilter("i5 (8th)")
	or := f["$or"].(bson.A)
	require.Len(t, or, 3)
	rx := or[0].(bson.M)["name"].(bson.M)["$regex"].(primitive.Regex)
	assert.Equal(t, `i5 \(8th\)`, rx.Pattern)
	assert.Equal(t, "i", rx.Options)
}

func newTestClient(url string) (*Client, *[]time.Duration) {
	var slept []time.Duration
	c := NewClient(url, nil)
	c.Logger = log.New(&bytes.Buffer{}, "", 0)
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func TestClient_RetriesOn429(t *testing.T) {
	t.Parallel()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"products":[{"id":"p1","name":"Laptop","price":1000}]}`)
	}))
	defer srv.Close()

	c, slept := newTestClient(srv.URL)
	got, err := c.FetchProducts(context.Background(), "/api/products?limit=200")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{400 * time.Millisecond, 800 * time.Millisecond}, *slept)
}

func TestClient_GivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, slept := newTestClient(srv.URL)
	_, err := c.FetchProducts(context.Background(), "/api/products")
	require.Error(t, err)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Len(t, *slept, 2)
}

func TestClient_DoesNotRetryOtherStatuses(t *testing.T) {
	t.Parallel()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, slept := newTestClient(srv.URL)
	_, err := c.FetchProducts(context.Background(), "/api/products/featured")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, *slept)
}

func TestClient_DoesNotRetryNonJSON(t *testing.T) {
	t.Parallel()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html>maintenance</html>")
	}))
	defer srv.Close()

	c, slept := newTestClient(srv.URL)
	_, err := c.FetchProducts(context.Background(), "/api/products")
	var ce *ContentTypeError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "text/html; charset=utf-8", ce.ContentType)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, *slept)
}

func TestClient_RetriesTransportErrors(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, slept := newTestClient(url)
	_, err := c.FetchProducts(context.Background(), "/api/products")
	require.Error(t, err)
	assert.Len(t, *slept, 2)
}

func TestStore_GetWithMockDeployment(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "shop.products", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "p1"},
			{Key: "name", Value: "Laptop"},
			{Key: "price", Value: 1000.0},
			{Key: "is_featured", Value: true},
		}))
		p, err := NewStore(mt.DB).Get(context.Background(), "p1")
		require.NoError(mt, err)
		require.NotNil(mt, p)
		assert.Equal(mt, "Laptop", p.Name)
		assert.True(mt, p.IsFeatured)
	})

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "shop.products", mtest.FirstBatch))
		p, err := NewStore(mt.DB).Get(context.Background(), "nope")
		require.NoError(mt, err)
		assert.Nil(mt, p)
	})

	mt.Run("delete", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}})
		deleted, err := NewStore(mt.DB).Delete(context.Background(), "p1")
		require.NoError(mt, err)
		assert.True(mt, deleted)
	})
}

func TestStore_SetStockWithMockDeployment(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("updated", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{{Key: "_id", Value: "p1"}, {Key: "stock", Value: 7}}},
		})
		p, err := NewStore(mt.DB).SetStock(context.Background(), "p1", 7)
		require.NoError(mt, err)
		require.NotNil(mt, p)
		assert.Equal(mt, 7, p.Stock)
	})

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})
		p, err := NewStore(mt.DB).SetStock(context.Background(), "nope", 7)
		require.NoError(mt, err)
		assert.Nil(mt, p)
	})
}

func TestSlugify(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "gaming-laptops", Slugify("Gaming  Laptops"))
	assert.Equal(t, "printers", Slugify(" Printers "))
	assert.Equal(t, "", Slugify(""))
}

func categoryDoc(id, name string, created time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: name},
		{Key: "slug", Value: Slugify(name)},
		{Key: "icon", Value: "fa-laptop"},
		{Key: "color", Value: "#ff0000"},
		{Key: "created_at", Value: created},
	}
}

func TestStore_CategoriesWithMockDeployment(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	created := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	clocked := func(mt *mtest.T) *Store {
		s := NewStore(mt.DB)
		s.nowFunc = func() time.Time { return now }
		return s
	}

	mt.Run("get found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "shop.categories", mtest.FirstBatch, categoryDoc("c1", "Laptops", created)))
		c, err := clocked(mt).GetCategory(context.Background(), "c1")
		require.NoError(mt, err)
		require.NotNil(mt, c)
		assert.Equal(mt, "laptops", c.Slug)
		assert.Equal(mt, "fa-laptop", c.Icon)
	})

	mt.Run("get missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "shop.categories", mtest.FirstBatch))
		c, err := clocked(mt).GetCategory(context.Background(), "nope")
		require.NoError(mt, err)
		assert.Nil(mt, c)
	})

	mt.Run("create fills defaults", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		c, err := clocked(mt).CreateCategory(context.Background(), Category{Name: "Gaming Laptops", Icon: "fa-gamepad"})
		require.NoError(mt, err)
		assert.NotEmpty(mt, c.ID)
		assert.Equal(mt, "gaming-laptops", c.Slug)
		assert.Equal(mt, DefaultCategoryColor, c.Color)
		assert.Equal(mt, now, c.CreatedAt)
	})

	mt.Run("update keeps creation time", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "shop.categories", mtest.FirstBatch, categoryDoc("c1", "Laptops", created)),
			bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}, {Key: "nModified", Value: 1}},
		)
		c, err := clocked(mt).UpdateCategory(context.Background(), "c1", Category{Name: "Business Laptops", Icon: "fa-briefcase", Color: "#00ff00"})
		require.NoError(mt, err)
		require.NotNil(mt, c)
		assert.Equal(mt, "c1", c.ID)
		assert.Equal(mt, "business-laptops", c.Slug)
		assert.Equal(mt, "#00ff00", c.Color)
		assert.True(mt, created.Equal(c.CreatedAt))
		assert.Equal(mt, now, c.UpdatedAt)
	})

	mt.Run("update missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "shop.categories", mtest.FirstBatch))
		c, err := clocked(mt).UpdateCategory(context.Background(), "nope", Category{Name: "X"})
		require.NoError(mt, err)
		assert.Nil(mt, c)
	})

	mt.Run("delete", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}})
		deleted, err := clocked(mt).DeleteCategory(context.Background(), "nope")
		require.NoError(mt, err)
		assert.False(mt, deleted)
	})
}
