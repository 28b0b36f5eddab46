package validation

import "github.com/DrewGalowayDev/Awesome/internal/catalog"

// OrderItem is a requested order line. Prices come from the catalog.
type OrderItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=100"`
}

// Address is the shipping address of an order.
type Address struct {
	Name       string `json:"name" validate:"required,max=120"`
	Phone      string `json:"phone" validate:"required,min=9,max=20"`
	Line1      string `json:"line1" validate:"required,max=200"`
	Line2      string `json:"line2,omitempty" validate:"max=200"`
	City       string `json:"city" validate:"required,max=100"`
	County     string `json:"county,omitempty" validate:"max=100"`
	PostalCode string `json:"postal_code,omitempty" validate:"max=20"`
	Notes      string `json:"notes,omitempty" validate:"max=500"`
}

// CreateOrderRequest is the payload for POST /api/orders. Without items the
// caller's cart is ordered.
type CreateOrderRequest struct {
	Items           []OrderItem `json:"items,omitempty" validate:"omitempty,max=50,unique=ProductID,dive"`
	ShippingAddress Address     `json:"shipping_address"`
	PaymentMethod   string      `json:"payment_method" validate:"required,oneof=mpesa card cash_on_delivery whatsapp"`
	PaymentCode     string      `json:"payment_code,omitempty" validate:"max=40"`
}

// AddToCartRequest is the payload for POST /api/cart. A missing quantity
// adds one.
type AddToCartRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity,omitempty" validate:"omitempty,min=1,max=100"`
}

// UpdateQuantityRequest sets a cart line's quantity; below 1 removes it.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"max=100"`
}

// WishlistRequest adds a product to the wishlist.
type WishlistRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

// ReviewRequest creates a review.
type ReviewRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

// ReviewUpdateRequest edits a review.
type ReviewUpdateRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// StatusUpdateRequest is the admin order status change.
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
}

// ConfirmPaymentRequest marks an order paid.
type ConfirmPaymentRequest struct {
	OrderID   string `json:"order_id" validate:"required"`
	Reference string `json:"reference" validate:"required,max=64"`
}

// NotifyProductRequest builds a product promotion link. Phone defaults to
// the store's number.
type NotifyProductRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,min=9,max=20"`
}

// NotifyCustomerRequest builds a contact link for a customer.
type NotifyCustomerRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Message    string `json:"message" validate:"required,max=1000"`
}

// BroadcastRequest messages a customer segment. Target defaults to all.
type BroadcastRequest struct {
	Message string `json:"message" validate:"required,max=1000"`
	Target  string `json:"target,omitempty" validate:"omitempty,oneof=all active vip"`
}

// StockRequest sets a product's stock level.
type StockRequest struct {
	Stock int `json:"stock" validate:"gte=0"`
}

// CategoryRequest creates or replaces a category. Slug and color default
// in the store.
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"omitempty,max=100"`
	Icon        string `json:"icon" validate:"max=100"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
	Description string `json:"description" validate:"max=1000"`
	Image       string `json:"image" validate:"omitempty,url"`
}

func (r CategoryRequest) Category() catalog.Category {
	return catalog.Category{
		Name:        r.Name,
		Slug:        r.Slug,
		Icon:        r.Icon,
		Color:       r.Color,
		Description: r.Description,
		Image:       r.Image,
	}
}

// ProductRequest creates or replaces a product.
type ProductRequest struct {
	Name         string            `json:"name" validate:"required,max=200"`
	Brand        string            `json:"brand" validate:"max=100"`
	Description  string            `json:"description" validate:"max=5000"`
	Price        float64           `json:"price" validate:"gte=0"`
	OldPrice     *float64          `json:"old_price,omitempty" validate:"omitempty,gte=0"`
	Stock        int               `json:"stock" validate:"gte=0"`
	CategoryID   string            `json:"category_id"`
	Category     string            `json:"category"`
	Condition    string            `json:"condition" validate:"omitempty,oneof=new refurbished used"`
	Images       []string          `json:"images" validate:"omitempty,dive,required"`
	Specs        map[string]string `json:"specs"`
	Features     []string          `json:"features"`
	IsFeatured   bool              `json:"is_featured"`
	IsNewArrival bool              `json:"is_new_arrival"`
	IsDeal       bool              `json:"is_deal"`
	OnSale       bool              `json:"on_sale"`
}

// Product converts the request to a catalog product without id or
// timestamps.
func (r ProductRequest) Product() catalog.Product {
	return catalog.Product{
		Name:         r.Name,
		Brand:        r.Brand,
		Description:  r.Description,
		Price:        r.Price,
		OldPrice:     r.OldPrice,
		Stock:        r.Stock,
		CategoryID:   r.CategoryID,
		Category:     r.Category,
		Condition:    r.Condition,
		Images:       r.Images,
		Specs:        r.Specs,
		Features:     r.Features,
		IsFeatured:   r.IsFeatured,
		IsNewArrival: r.IsNewArrival,
		IsDeal:       r.IsDeal,
		OnSale:       r.OnSale,
	}
}
