// Package selection partitions a product catalog into the storefront's views.
package selection

import "github.com/DrewGalowayDev/Awesome/internal/catalog"

// Kind names the selection rule of a view.
type Kind string

const (
	KindNewArrivals Kind = "new-arrivals"
	KindFeatured    Kind = "featured"
	KindDeals       Kind = "deals"
	KindAll         Kind = "all"
)

// DefaultLimit applies to flagged views when no limit is set.
const DefaultLimit = 12

// ViewConfig describes one rendered view.
type ViewConfig struct {
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	Limit    int    `json:"limit"`
	Hideable bool   `json:"hideable"`
}

// Section is a computed view ready for rendering.
type Section struct {
	Name     string            `json:"name"`
	Kind     Kind              `json:"kind"`
	Products []catalog.Product `json:"products"`
	Hidden   bool              `json:"hidden"`
}

// DefaultViews is the home page layout.
func DefaultViews() []ViewConfig {
	return []ViewConfig{
		{Name: "justInGrid", Kind: KindNewArrivals, Limit: 4},
		{Name: "products-tab-1", Kind: KindAll, Limit: 50},
		{Name: "products-tab-2", Kind: KindNewArrivals, Limit: 50},
		{Name: "products-tab-3", Kind: KindFeatured, Limit: 50},
		{Name: "products-tab-4", Kind: KindDeals, Limit: 50},
		{Name: "productListCarousel", Kind: KindAll, Limit: 200, Hideable: true},
	}
}

// ParseKind maps a string onto a Kind.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindNewArrivals, KindFeatured, KindDeals, KindAll:
		return k, true
	}
	return "", false
}

// Matches reports whether p satisfies the kind's filter.
func Matches(kind Kind, p catalog.Product) bool {
	switch kind {
	case KindNewArrivals:
		return p.IsNewArrival
	case KindFeatured:
		return p.IsFeatured
	case KindDeals:
		return p.IsDeal || p.OnSale || p.Discounted()
	default:
		return true
	}
}

// Select applies kind to products and truncates to limit. When a flagged
// kind matches nothing the full list is used instead, in input order, so the
// result is never empty for a non-empty input. limit <= 0 means DefaultLimit
// for flagged kinds and no limit for KindAll.
func Select(products []catalog.Product, kind Kind, limit int) []catalog.Product {
	if limit <= 0 {
		if kind == KindAll {
			limit = len(products)
		} else {
			limit = DefaultLimit
		}
	}

	selected := products
	if kind != KindAll {
		var filtered []catalog.Product
		for _, p := range products {
			if Matches(kind, p) {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) > 0 {
			selected = filtered
		}
	}

	if len(selected) > limit {
		selected = selected[:limit]
	}
	out := make([]catalog.Product, len(selected))
	copy(out, selected)
	return out
}

// Partition computes every view over one snapshot, keyed by view name.
func Partition(products []catalog.Product, views []ViewConfig) map[string][]catalog.Product {
	out := make(map[string][]catalog.Product, len(views))
	for _, v := range views {
		out[v.Name] = Select(products, v.Kind, v.Limit)
	}
	return out
}

// Sections computes every view in order. Hideable views with nothing to show
// are marked Hidden.
func Sections(products []catalog.Product, views []ViewConfig) []Section {
	out := make([]Section, 0, len(views))
	for _, v := range views {
		s := Section{Name: v.Name, Kind: v.Kind, Products: Select(products, v.Kind, v.Limit)}
		s.Hidden = v.Hideable && len(s.Products) == 0
		out = append(out, s)
	}
	return out
}
