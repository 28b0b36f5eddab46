// Package payments lists the accepted payment methods and confirms payments
// through a provider.
package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/DrewGalowayDev/Awesome/internal/orders"
)

// Method identifiers accepted at checkout.
const (
	MethodMpesa          = "mpesa"
	MethodCard           = "card"
	MethodCashOnDelivery = "cash_on_delivery"
	MethodWhatsApp       = "whatsapp"
)

// Method describes one way to pay.
type Method struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Methods returns the payment methods offered at checkout.
func Methods() []Method {
	return []Method{
		{ID: MethodMpesa, Name: "M-Pesa", Description: "Pay with M-Pesa and share the confirmation code"},
		{ID: MethodCard, Name: "Card", Description: "Visa or Mastercard"},
		{ID: MethodCashOnDelivery, Name: "Cash on delivery", Description: "Pay when your order arrives"},
		{ID: MethodWhatsApp, Name: "WhatsApp", Description: "Confirm payment details with us on WhatsApp"},
	}
}

// ValidMethod reports whether id is an offered method.
func ValidMethod(id string) bool {
	for _, m := range Methods() {
		if m.ID == id {
			return true
		}
	}
	return false
}

var (
	// ErrNotVerified is returned when the provider rejects a payment.
	ErrNotVerified = errors.New("payment not completed")
	// ErrOrderNotFound is returned when the order does not exist.
	ErrOrderNotFound = errors.New("order not found")
)

// Provider verifies that a payment reference settled an order.
type Provider interface {
	Verify(ctx context.Context, order orders.Order, reference string) (bool, error)
}

// ManualProvider accepts any non-empty reference. It backs admin
// confirmation of M-Pesa codes and cash collected on delivery.
type ManualProvider struct{}

// Verify implements Provider.
func (ManualProvider) Verify(_ context.Context, _ orders.Order, reference string) (bool, error) {
	return strings.TrimSpace(reference) != "", nil
}

// OrderStore is the part of the order store payments need.
type OrderStore interface {
	Get(ctx context.Context, id string) (*orders.Order, error)
	MarkPaid(ctx context.Context, id, reference string) (*orders.Order, error)
}

// Service confirms payments.
type Service struct {
	Orders   OrderStore
	Provider Provider
}

// Confirm verifies reference with the provider and marks the order paid.
// Confirming an already paid order returns it unchanged.
func (s Service) Confirm(ctx context.Context, orderID, reference string) (*orders.Order, error) {
	order, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("confirm payment %s: %w", orderID, err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Paid() {
		return order, nil
	}

	ok, err := s.Provider.Verify(ctx, *order, reference)
	if err != nil {
		return nil, fmt.Errorf("verify payment %s: %w", orderID, err)
	}
	if !ok {
		return nil, ErrNotVerified
	}

	updated, err := s.Orders.MarkPaid(ctx, orderID, reference)
	if errors.Is(err, orders.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mark paid %s: %w", orderID, err)
	}
	log.Printf("[payments] confirmed order_id=%s reference=%s", orderID, reference)
	return updated, nil
}
