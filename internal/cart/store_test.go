package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/DrewGalowayDev/Awesome/internal/catalog"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

var (
	laptop = catalog.Product{
		ID: "p1", Name: "Laptop X", Brand: "HP", Price: 1000, OldPrice: ptr(1200),
		Images: []string{"laptop.jpg", "side.jpg"},
		Specs:  map[string]string{"processor": "i5", "ram": "8GB"},
	}
	mouse = catalog.Product{ID: "p2", Name: "Mouse", Brand: "Logitech", Price: 500}
)

func newStore(t *testing.T, slot Slot) (*Store, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return New(context.Background(), slot, Key("", "user-1"), log.New(&buf, "", 0)), &buf
}

func TestAddItem_MergesAndDefaultsQuantity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newStore(t, NewMemorySlot())

	s.AddItem(ctx, laptop, 1)
	s.AddItem(ctx, laptop, 2)
	s.AddItem(ctx, mouse, 0)

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ID)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "laptop.jpg", items[0].Image)
	assert.Equal(t, 1, items[1].Quantity)
	assert.Equal(t, 4, s.Count())
}

func TestUpdateQuantity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newStore(t, NewMemorySlot())
	s.AddItem(ctx, laptop, 1)

	assert.True(t, s.UpdateQuantity(ctx, "p1", 5))
	it, ok := s.Find("p1")
	require.True(t, ok)
	assert.Equal(t, 5, it.Quantity)

	assert.False(t, s.UpdateQuantity(ctx, "missing", 2))

	assert.True(t, s.UpdateQuantity(ctx, "p1", 0))
	_, ok = s.Find("p1")
	assert.False(t, ok)
	assert.False(t, s.UpdateQuantity(ctx, "p1", 0))
}

func TestUpdateQuantity_NegativeRemoves(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	slot := NewMemorySlot()
	s, _ := newStore(t, slot)
	s.AddItem(ctx, laptop, 2)
	s.AddItem(ctx, mouse, 1)

	var seen [][]Item
	s.Subscribe(func(items []Item) { seen = append(seen, items) })

	assert.True(t, s.UpdateQuantity(ctx, "p1", -1))
	_, ok := s.Find("p1")
	assert.False(t, ok)
	assert.False(t, s.RemoveItem(ctx, "p1"))
	assert.Equal(t, 1, s.Count())

	require.Len(t, seen, 1)
	require.Len(t, seen[0], 1)
	assert.Equal(t, "p2", seen[0][0].ID)

	reloaded, _ := newStore(t, slot)
	assert.Equal(t, s.Items(), reloaded.Items())
}

func TestRemoveItem_NotifiesOnlyOnChange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newStore(t, NewMemorySlot())
	s.AddItem(ctx, laptop, 1)

	calls := 0
	unsubscribe := s.Subscribe(func([]Item) { calls++ })

	assert.False(t, s.RemoveItem(ctx, "nope"))
	assert.Equal(t, 0, calls)
	assert.True(t, s.RemoveItem(ctx, "p1"))
	assert.Equal(t, 1, calls)

	unsubscribe()
	s.Clear(ctx)
	assert.Equal(t, 1, calls)
}

func TestSubscribe_RegistrationOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newStore(t, NewMemorySlot())

	var order []int
	unsubs := make([]func(), 5)
	for i := range unsubs {
		i := i
		unsubs[i] = s.Subscribe(func([]Item) { order = append(order, i) })
	}

	s.AddItem(ctx, mouse, 1)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)

	order = nil
	unsubs[2]()
	unsubs[2]()
	s.AddItem(ctx, mouse, 1)
	assert.Equal(t, []int{0, 1, 3, 4}, order)

	order = nil
	s.Subscribe(func([]Item) { order = append(order, 5) })
	s.Clear(ctx)
	assert.Equal(t, []int{0, 1, 3, 4, 5}, order)
}

func TestClear_IsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	slot := NewMemorySlot()
	s, _ := newStore(t, slot)
	s.AddItem(ctx, mouse, 2)

	var seen [][]Item
	s.Subscribe(func(items []Item) { seen = append(seen, items) })
	s.Clear(ctx)
	s.Clear(ctx)

	assert.Empty(t, s.Items())
	assert.Len(t, seen, 2)
	data, found, err := slot.Get(ctx, Key("", "user-1"))
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `[]`, string(data))
}

func TestTotals_DiscountNeverReducesTotal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newStore(t, NewMemorySlot())
	s.AddItem(ctx, laptop, 2)
	s.AddItem(ctx, mouse, 1)

	got := s.Totals()
	assert.Equal(t, Totals{Subtotal: 2500, Discount: 400, Delivery: 0, Total: 2500, Savings: 400}, got)

	msg, ok := s.OrderMessage()
	require.True(t, ok)
	assert.Contains(t, msg, "💰 *TOTAL: KSh 2,500*")
	assert.Contains(t, msg, "🎉 Discount: -KSh 400")
	assert.Contains(t, msg, "   Specs: i5, 8GB\n")
}

func TestOrderMessage_EmptyCart(t *testing.T) {
	t.Parallel()
	s, _ := newStore(t, NewMemorySlot())
	msg, ok := s.OrderMessage()
	assert.False(t, ok)
	assert.Empty(t, msg)
}

func TestPersistence_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	slot := NewMemorySlot()
	s, _ := newStore(t, slot)
	s.AddItem(ctx, laptop, 2)
	s.AddItem(ctx, mouse, 1)

	data, _, err := slot.Get(ctx, Key("", "user-1"))
	require.NoError(t, err)
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 2)
	assert.Equal(t, 1200.0, raw[0]["oldPrice"])
	assert.Nil(t, raw[1]["oldPrice"])
	for _, k := range []string{"id", "name", "brand", "price", "image", "specs", "quantity"} {
		assert.Contains(t, raw[0], k)
	}

	reloaded, _ := newStore(t, slot)
	assert.Equal(t, s.Items(), reloaded.Items())
}

func TestLoad_MalformedSlotIsEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	slot := NewMemorySlot()
	require.NoError(t, slot.Set(ctx, Key("", "user-1"), []byte("{not json")))

	s, logs := newStore(t, slot)
	assert.Empty(t, s.Items())
	assert.Contains(t, logs.String(), "[cart] malformed cart")
}

func TestLoad_MergesDuplicateLines(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	slot := NewMemorySlot()
	require.NoError(t, slot.Set(ctx, Key("", "user-1"),
		[]byte(`[{"id":"a","quantity":1},{"id":"","quantity":3},{"id":"a","quantity":0}]`)))

	s, _ := newStore(t, slot)
	require.Len(t, s.Items(), 1)
	assert.Equal(t, 2, s.Count())
}

type failingSlot struct{ *MemorySlot }

func (f *failingSlot) Set(context.Context, string, []byte) error { return errors.New("disk full") }

func TestPersistFailure_KeepsMutation(t *testing.T) {
	t.Parallel()
	s, logs := newStore(t, &failingSlot{MemorySlot: NewMemorySlot()})
	s.AddItem(context.Background(), mouse, 1)

	assert.Equal(t, 1, s.Count())
	assert.Contains(t, logs.String(), "[cart] persist failed")
}

type fakeRedis struct {
	values map[string]string
	ttl    time.Duration
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.values[key] = string(value.([]byte))
	f.ttl = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestRedisSlot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fake := &fakeRedis{values: map[string]string{}}
	slot := NewRedisSlot(fake, 24*time.Hour)

	_, found, err := slot.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	s := New(ctx, slot, "k", log.New(&bytes.Buffer{}, "", 0))
	s.AddItem(ctx, mouse, 2)
	assert.Equal(t, 24*time.Hour, fake.ttl)

	reloaded := New(ctx, slot, "k", nil)
	assert.Equal(t, 2, reloaded.Count())
}

func TestKey(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "awesomeTech_cart:u1", Key("", "u1"))
	assert.Equal(t, "carts:u1", Key("carts", "u1"))
	assert.Equal(t, "awesomeTech_cart", Key("", ""))
}
