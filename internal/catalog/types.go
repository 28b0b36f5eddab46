package catalog

import "time"

// Condition values observed in the catalog. Other values are stored as-is.
const (
	ConditionNew         = "new"
	ConditionRefurbished = "refurbished"
	ConditionUsed        = "used"
)

// Product is the canonical catalog record. Every raw shape entering the
// service is converted to this type once, by the store decoder or Normalize.
type Product struct {
	ID           string            `bson:"_id" json:"id"`
	Name         string            `bson:"name" json:"name"`
	Brand        string            `bson:"brand,omitempty" json:"brand,omitempty"`
	Description  string            `bson:"description,omitempty" json:"description,omitempty"`
	Price        float64           `bson:"price" json:"price"`
	OldPrice     *float64          `bson:"old_price,omitempty" json:"old_price,omitempty"`
	Stock        int               `bson:"stock" json:"stock"`
	CategoryID   string            `bson:"category_id,omitempty" json:"category_id,omitempty"`
	Category     string            `bson:"category,omitempty" json:"category,omitempty"`
	Condition    string            `bson:"condition,omitempty" json:"condition,omitempty"`
	Rating       float64           `bson:"rating" json:"rating"`
	ReviewsCount int               `bson:"reviews_count" json:"reviews_count"`
	Images       []string          `bson:"images,omitempty" json:"images,omitempty"`
	Specs        map[string]string `bson:"specs,omitempty" json:"specs,omitempty"`
	Features     []string          `bson:"features,omitempty" json:"features,omitempty"`
	IsFeatured   bool              `bson:"is_featured" json:"is_featured"`
	IsNewArrival bool              `bson:"is_new_arrival" json:"is_new_arrival"`
	IsDeal       bool              `bson:"is_deal" json:"is_deal"`
	OnSale       bool              `bson:"on_sale" json:"on_sale"`
	CreatedAt    time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time         `bson:"updated_at" json:"updated_at"`
}

// Image returns the primary image URI or "" when the product has none.
func (p Product) Image() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Discounted reports whether the product carries a reference price above
// its current price.
func (p Product) Discounted() bool {
	return p.OldPrice != nil && *p.OldPrice > p.Price
}

// DefaultCategoryColor is used for categories stored without a color.
const DefaultCategoryColor = "#2575fc"

// Category groups products for navigation and the dashboard chart.
type Category struct {
	ID          string    `bson:"_id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Slug        string    `bson:"slug,omitempty" json:"slug,omitempty"`
	Icon        string    `bson:"icon,omitempty" json:"icon,omitempty"`
	Color       string    `bson:"color,omitempty" json:"color,omitempty"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Image       string    `bson:"image,omitempty" json:"image,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// ListParams controls paging and ordering of List.
type ListParams struct {
	Page  int
	Limit int
	Sort  string
	Order string
}

// ListResult is one page of products plus the total match count.
type ListResult struct {
	Products   []Product `json:"products"`
	Count      int64     `json:"count"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
}

// FilterParams narrows the catalog. Zero values mean "no constraint".
type FilterParams struct {
	MinPrice  *float64
	MaxPrice  *float64
	Brand     string
	Condition string
	Category  string
	InStock   bool
}
