package notify

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/DrewGalowayDev/Awesome/internal/orders"
	qrcode "github.com/skip2/go-qrcode"
)

// DefaultHost is the chat service used for deep links.
const DefaultHost = "wa.me"

// DefaultDestination is the storefront's order line.
const DefaultDestination = "+254704546916"

// DeepLink builds https://<host>/<digits>?text=<encoded>. Every non-digit is
// stripped from destination and text is percent-encoded with spaces as %20.
func DeepLink(host, destination, text string) string {
	if host == "" {
		host = DefaultHost
	}
	return fmt.Sprintf("https://%s/%s?text=%s", host, digitsOnly(destination), encodeText(text))
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// leaves the same unreserved marks as a browser's encodeURIComponent
var componentMarks = strings.NewReplacer("+", "%20", "%21", "!", "%27", "'", "%28", "(", "%29", ")", "%2A", "*")

func encodeText(s string) string {
	return componentMarks.Replace(url.QueryEscape(s))
}

// DefaultQRSize is the QR edge in pixels when none is requested.
const DefaultQRSize = 256

// MaxQRSize bounds the QR edge; the encoder allocates size² pixels.
const MaxQRSize = 1024

// QRCode encodes link as a PNG of the given pixel size. A size <= 0 uses
// DefaultQRSize and anything above MaxQRSize is clamped to it.
func QRCode(link string, size int) ([]byte, error) {
	switch {
	case size <= 0:
		size = DefaultQRSize
	case size > MaxQRSize:
		size = MaxQRSize
	}
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// OrderSummary converts a stored order into a message summary headed by its
// order number. Stored orders carry no reference prices, so there is no discount.
func OrderSummary(o orders.Order) Summary {
	s := Summary{
		Heading: fmt.Sprintf("Hello! I would like to confirm order %s:", o.OrderNumber),
		Lines:   make([]Line, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		s.Lines = append(s.Lines, Line{
			Name:     it.ProductName,
			Price:    it.Price,
			Quantity: it.Quantity,
		})
		s.Subtotal += it.Price * float64(it.Quantity)
	}
	s.Total = o.TotalAmount
	return s
}

var statusMessages = map[string]string{
	orders.StatusPending:    "Your order has been received and is being processed.",
	orders.StatusProcessing: "Your order is currently being prepared.",
	orders.StatusShipped:    "📦 Your order has been shipped and will arrive soon!",
	orders.StatusDelivered:  "✅ Your order has been delivered. Thank you for shopping with us!",
	orders.StatusCancelled:  "Your order has been cancelled.",
}

// FormatOrderUpdate renders the status update an admin sends to a customer.
func FormatOrderUpdate(o orders.Order) string {
	msg, ok := statusMessages[o.Status]
	if !ok {
		msg = "Order update"
	}
	name := o.CustomerName
	if name == "" {
		name = o.ShippingAddress.Name
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s! 👋\n\n", name)
	fmt.Fprintf(&b, "*Order Update - %s*\n\n", o.OrderNumber)
	fmt.Fprintf(&b, "Status: *%s*\n%s\n\n", strings.ToUpper(o.Status), msg)
	fmt.Fprintf(&b, "Total: %s\n", Money(o.TotalAmount))
	fmt.Fprintf(&b, "Items: %d product(s)\n\n", len(o.Items))
	b.WriteString("For any questions, please contact us.\n\nAwesome Technologies 🛍️")
	return b.String()
}
