package orders

import "time"

// Order statuses
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// Payment statuses. Payment status is tracked independently of Status.
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

// Statuses lists every order status in lifecycle order.
var Statuses = []string{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// Address is the delivery address captured at checkout.
type Address struct {
	Name       string `dynamodbav:"name" json:"name"`
	Phone      string `dynamodbav:"phone" json:"phone"`
	Line1      string `dynamodbav:"line1" json:"line1"`
	Line2      string `dynamodbav:"line2,omitempty" json:"line2,omitempty"`
	City       string `dynamodbav:"city" json:"city"`
	County     string `dynamodbav:"county,omitempty" json:"county,omitempty"`
	PostalCode string `dynamodbav:"postal_code,omitempty" json:"postal_code,omitempty"`
	Notes      string `dynamodbav:"notes,omitempty" json:"notes,omitempty"`
}

// LineItem is one product row of an order. Price is the unit price at order time.
type LineItem struct {
	ProductID   string  `dynamodbav:"product_id" json:"product_id"`
	ProductName string  `dynamodbav:"product_name" json:"product_name"`
	Quantity    int     `dynamodbav:"quantity" json:"quantity"`
	Price       float64 `dynamodbav:"price" json:"price"`
}

// Order represents the item stored in the Orders DynamoDB table.
type Order struct {
	OrderID          string     `dynamodbav:"order_id" json:"id"` // PK
	OrderNumber      string     `dynamodbav:"order_number" json:"order_number"`
	UserID           string     `dynamodbav:"user_id" json:"user_id"` // GSI user_id-created_at-index
	CustomerName     string     `dynamodbav:"customer_name,omitempty" json:"customer_name,omitempty"`
	Items            []LineItem `dynamodbav:"items" json:"order_items"`
	TotalAmount      float64    `dynamodbav:"total_amount" json:"total_amount"`
	Status           string     `dynamodbav:"status" json:"status"`
	PaymentStatus    string     `dynamodbav:"payment_status" json:"payment_status"`
	PaymentMethod    string     `dynamodbav:"payment_method,omitempty" json:"payment_method,omitempty"`
	PaymentReference string     `dynamodbav:"payment_reference,omitempty" json:"payment_reference,omitempty"`
	ShippingAddress  Address    `dynamodbav:"shipping_address" json:"shipping_address"`
	NotificationLink string     `dynamodbav:"notification_link,omitempty" json:"notification_link,omitempty"`
	NotifiedAt       string     `dynamodbav:"notified_at,omitempty" json:"notified_at,omitempty"` // RFC3339
	CreatedAt        time.Time  `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `dynamodbav:"updated_at" json:"updated_at"`
}

// Paid reports whether the order's payment has been confirmed.
func (o Order) Paid() bool { return o.PaymentStatus == PaymentPaid }

// Total returns the sum of price*quantity over items.
func Total(items []LineItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Price * float64(it.Quantity)
	}
	return sum
}

// CreatedEvent is the payload sent from API -> SQS -> Worker after checkout.
type CreatedEvent struct {
	OrderID        string `json:"order_id"`
	IdempotencyKey string `json:"idempotency_key"`
	CorrelationID  string `json:"correlation_id,omitempty"`
}
