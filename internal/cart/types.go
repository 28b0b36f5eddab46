package cart

// DefaultNamespace prefixes every persisted cart key.
const DefaultNamespace = "awesomeTech_cart"

// Item is a snapshot of a product's display fields plus a quantity.
// The JSON layout is the persisted cart format.
type Item struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Brand    string            `json:"brand"`
	Price    float64           `json:"price"`
	OldPrice *float64          `json:"oldPrice"`
	Image    string            `json:"image"`
	Specs    map[string]string `json:"specs"`
	Quantity int               `json:"quantity"`
}

// Totals are derived from the item list on demand.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Delivery float64 `json:"delivery"`
	Total    float64 `json:"total"`
	Savings  float64 `json:"savings"`
}

// Key returns the slot key for an owner's cart. An empty namespace uses
// DefaultNamespace.
func Key(namespace, owner string) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if owner == "" {
		return namespace
	}
	return namespace + ":" + owner
}

func (it Item) saving() float64 {
	if it.OldPrice != nil && *it.OldPrice > it.Price {
		return (*it.OldPrice - it.Price) * float64(it.Quantity)
	}
	return 0
}
