// Package cart holds a single owner's shopping cart and persists it to a Slot
// after every mutation.
package cart

import (
	"context"
	"encoding/json"
	"log"

	"github.com/DrewGalowayDev/Awesome/internal/catalog"
	"github.com/DrewGalowayDev/Awesome/internal/notify"
)

// Store is one owner's cart. It is not safe for concurrent use.
//
// Mutations never fail from the caller's point of view: a persisting error
// is logged and the in-memory change stays.
type Store struct {
	slot      Slot
	key       string
	logger    *log.Logger
	items     []Item
	observers []observer
	nextObs   int
}

type observer struct {
	id int
	fn func([]Item)
}

// New loads the cart stored under key. A missing or unreadable slot yields
// an empty cart. A nil logger uses the standard logger.
func New(ctx context.Context, slot Slot, key string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	s := &Store{
		slot:      slot,
		key:       key,
		logger:    logger,
	}
	s.items = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) []Item {
	data, found, err := s.slot.Get(ctx, s.key)
	if err != nil {
		s.logger.Printf("[cart] load failed key=%s err=%v", s.key, err)
		return nil
	}
	if !found || len(data) == 0 {
		return nil
	}
	var raw []Item
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Printf("[cart] malformed cart key=%s err=%v", s.key, err)
		return nil
	}

	// keep the one-line-per-product invariant even for hand-edited slots
	items := make([]Item, 0, len(raw))
	index := map[string]int{}
	for _, it := range raw {
		if it.ID == "" {
			continue
		}
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		if i, ok := index[it.ID]; ok {
			items[i].Quantity += it.Quantity
			continue
		}
		index[it.ID] = len(items)
		items = append(items, it)
	}
	return items
}

// AddItem adds qty of p, merging with an existing line for the same product.
// qty below 1 is treated as 1.
func (s *Store) AddItem(ctx context.Context, p catalog.Product, qty int) {
	if qty < 1 {
		qty = 1
	}
	if i := s.indexOf(p.ID); i >= 0 {
		s.items[i].Quantity += qty
	} else {
		s.items = append(s.items, snapshot(p, qty))
	}
	s.persist(ctx)
}

// UpdateQuantity sets the quantity for id. qty below 1 removes the line.
// Returns false when id is not in the cart.
func (s *Store) UpdateQuantity(ctx context.Context, id string, qty int) bool {
	if qty < 1 {
		return s.RemoveItem(ctx, id)
	}
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.items[i].Quantity = qty
	s.persist(ctx)
	return true
}

// RemoveItem drops the line for id. Returns false when there was none.
func (s *Store) RemoveItem(ctx context.Context, id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.persist(ctx)
	return true
}

// Clear empties the cart. It always persists and notifies.
func (s *Store) Clear(ctx context.Context) {
	s.items = nil
	s.persist(ctx)
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Count is the total quantity across lines.
func (s *Store) Count() int {
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// Find returns the line for id.
func (s *Store) Find(id string) (Item, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	return Item{}, false
}

// Totals computes subtotal, discount and total. Delivery is free, and the
// discount is informational: it is never subtracted from the total.
func (s *Store) Totals() Totals {
	var t Totals
	for _, it := range s.items {
		t.Subtotal += it.Price * float64(it.Quantity)
		t.Discount += it.saving()
	}
	t.Total = t.Subtotal + t.Delivery
	t.Savings = t.Discount
	return t
}

// Summary converts the cart into a message summary.
func (s *Store) Summary() notify.Summary {
	t := s.Totals()
	sum := notify.Summary{
		Lines:    make([]notify.Line, 0, len(s.items)),
		Subtotal: t.Subtotal,
		Discount: t.Discount,
		Delivery: t.Delivery,
		Total:    t.Total,
	}
	for _, it := range s.items {
		l := notify.Line{
			Name:     it.Name,
			Brand:    it.Brand,
			Price:    it.Price,
			Quantity: it.Quantity,
			Specs:    it.Specs,
		}
		if it.OldPrice != nil {
			l.OldPrice = *it.OldPrice
		}
		sum.Lines = append(sum.Lines, l)
	}
	return sum
}

// OrderMessage renders the cart as an order message. ok is false for an
// empty cart and callers must not send anything in that case.
func (s *Store) OrderMessage() (msg string, ok bool) {
	if len(s.items) == 0 {
		return "", false
	}
	return notify.FormatOrder(s.Summary()), true
}

// Subscribe registers fn to be called with a copy of the items after every
// mutation. Observers run in registration order. The returned func removes
// the subscription.
func (s *Store) Subscribe(fn func([]Item)) (unsubscribe func()) {
	id := s.nextObs
	s.nextObs++
	s.observers = append(s.observers, observer{id: id, fn: fn})
	return func() {
		for i, o := range s.observers {
			if o.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) persist(ctx context.Context) {
	data, err := json.Marshal(s.itemsForSlot())
	if err != nil {
		s.logger.Printf("[cart] encode failed key=%s err=%v", s.key, err)
	} else if err := s.slot.Set(ctx, s.key, data); err != nil {
		s.logger.Printf("[cart] persist failed key=%s err=%v", s.key, err)
	}
	s.notify()
}

func (s *Store) notify() {
	for _, o := range s.observers {
		o.fn(s.Items())
	}
}

// an empty cart is stored as [] rather than null
func (s *Store) itemsForSlot() []Item {
	if s.items == nil {
		return []Item{}
	}
	return s.items
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func snapshot(p catalog.Product, qty int) Item {
	it := Item{
		ID:       p.ID,
		Name:     p.Name,
		Brand:    p.Brand,
		Price:    p.Price,
		Image:    p.Image(),
		Specs:    p.Specs,
		Quantity: qty,
	}
	if it.Specs == nil {
		it.Specs = map[string]string{}
	}
	if p.OldPrice != nil && *p.OldPrice > 0 {
		old := *p.OldPrice
		it.OldPrice = &old
	}
	return it
}
