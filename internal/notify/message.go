// Package notify renders cart and order state into chat messages and deep links.
//
// Everything here is pure; delivery is left to whoever opens the link.
package notify

import (
	"fmt"
	"strings"
)

const separator = "━━━━━━━━━━━━━━━━━━━━━━━━━\n"

// Line is one row of a message.
type Line struct {
	Name     string
	Brand    string
	Price    float64
	OldPrice float64 // 0 when absent
	Quantity int
	Specs    map[string]string
}

// Saved returns the per-line saving, or 0 when there is none.
func (l Line) Saved() float64 {
	if l.OldPrice > l.Price {
		return (l.OldPrice - l.Price) * float64(l.Quantity)
	}
	return 0
}

// Summary is the input to the order message formatter.
type Summary struct {
	// Heading replaces the default greeting when set.
	Heading  string
	Lines    []Line
	Subtotal float64
	Discount float64
	Delivery float64
	Total    float64
}

// DefaultHeading opens every cart order message.
const DefaultHeading = "Hello! I would like to order the following items:"

const closing = "Please confirm availability and estimated delivery time. Thank you! 😊"

// shown in this order, others are omitted
var specKeys = []string{"processor", "ram", "storage"}

// FormatOrder renders the summary in the storefront's order message layout.
func FormatOrder(s Summary) string {
	var b strings.Builder

	heading := s.Heading
	if heading == "" {
		heading = DefaultHeading
	}
	b.WriteString(heading)
	b.WriteString("\n\n")

	for i, l := range s.Lines {
		fmt.Fprintf(&b, "%d. *%dx %s*\n", i+1, l.Quantity, l.Name)
		if l.Brand != "" {
			fmt.Fprintf(&b, "   Brand: %s\n", l.Brand)
		}
		if specs := specSummary(l.Specs); specs != "" {
			fmt.Fprintf(&b, "   Specs: %s\n", specs)
		}
		fmt.Fprintf(&b, "   Price: %s\n", Money(l.Price*float64(l.Quantity)))
		if saved := l.Saved(); saved > 0 {
			fmt.Fprintf(&b, "   (Save: %s)\n", Money(saved))
		}
		b.WriteString("\n")
	}

	b.WriteString(separator)
	fmt.Fprintf(&b, "📦 Subtotal: %s\n", Money(s.Subtotal))
	if s.Discount > 0 {
		fmt.Fprintf(&b, "🎉 Discount: -%s\n", Money(s.Discount))
	}
	b.WriteString(deliveryLine(s.Delivery))
	b.WriteString(separator)
	fmt.Fprintf(&b, "💰 *TOTAL: %s*\n\n", Money(s.Total))
	if s.Discount > 0 {
		fmt.Fprintf(&b, "✨ You save %s!\n\n", Money(s.Discount))
	}
	b.WriteString(closing)

	return b.String()
}

func deliveryLine(fee float64) string {
	if fee <= 0 {
		return "🚚 Delivery: FREE\n"
	}
	return fmt.Sprintf("🚚 Delivery: %s\n", Money(fee))
}

func specSummary(specs map[string]string) string {
	var parts []string
	for _, k := range specKeys {
		if v := specs[k]; v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

// ProductPromo is the input for a single-product promotion message.
type ProductPromo struct {
	Name     string
	Price    float64
	OldPrice float64
}

// FormatProductPromo renders the message an admin sends to advertise a product.
func FormatProductPromo(p ProductPromo) string {
	var b strings.Builder
	b.WriteString("Hello! 👋\n\n🛍️ Check out this product:\n\n")
	fmt.Fprintf(&b, "*%s*\n\n", p.Name)
	fmt.Fprintf(&b, "💰 Price: %s\n", Money(p.Price))
	if p.OldPrice > p.Price {
		fmt.Fprintf(&b, "🏷️ Was: %s\n", Money(p.OldPrice))
		fmt.Fprintf(&b, "💸 Save: %s!\n", Money(p.OldPrice-p.Price))
	}
	b.WriteString("\n✅ In Stock\n🚚 Free Delivery\n\nOrder now and don't miss out!\n\nAwesome Technologies 🎯")
	return b.String()
}

// FormatCustomerMessage wraps an admin's note to a single customer.
func FormatCustomerMessage(name, msg string) string {
	return fmt.Sprintf("Hello %s! 👋\n\n%s\n\nAwesome Technologies Team", name, msg)
}

// FormatBroadcast wraps a message sent to many customers.
func FormatBroadcast(msg string) string {
	return msg + "\n\n_Sent from Awesome Technologies_"
}
