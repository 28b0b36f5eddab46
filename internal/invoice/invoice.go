// Package invoice renders order invoices as PDF.
package invoice

import (
	"bytes"
	"fmt"
	"io"

	"github.com/phpdave11/gofpdf"

	"github.com/DrewGalowayDev/Awesome/internal/notify"
	"github.com/DrewGalowayDev/Awesome/internal/orders"
)

// StoreName heads every invoice.
const StoreName = "Awesome Tech"

const qrSize = 128

// Render writes the invoice for o to w. When the order carries a
// notification link it is embedded as a QR code.
func Render(w io.Writer, o orders.Order) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 12, StoreName, "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, "Invoice "+o.OrderNumber, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	addr := o.ShippingAddress
	pdf.MultiCell(0, 6, fmt.Sprintf(
		"Customer: %s\nPhone: %s\nDeliver to: %s %s, %s\nDate: %s\nStatus: %s / %s",
		firstNonEmpty(o.CustomerName, addr.Name),
		addr.Phone,
		addr.Line1, addr.Line2, addr.City,
		o.CreatedAt.Format("02 Jan 2006 15:04"),
		o.Status, o.PaymentStatus,
	), "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(37, 117, 252)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(90, 8, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 8, "Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 8, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.SetTextColor(0, 0, 0)
	for _, it := range o.Items {
		pdf.CellFormat(90, 8, it.ProductName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 8, fmt.Sprintf("%d", it.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 8, notify.FormatNumber(it.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 8, notify.FormatNumber(it.Price*float64(it.Quantity)), "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(140, 10, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 10, notify.Money(o.TotalAmount), "1", 1, "R", false, 0, "")

	if o.NotificationLink != "" {
		png, err := notify.QRCode(o.NotificationLink, qrSize)
		if err != nil {
			return fmt.Errorf("invoice qr %s: %w", o.OrderID, err)
		}
		opts := gofpdf.ImageOptions{ImageType: "png"}
		pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(png))
		pdf.ImageOptions("qr", 150, pdf.GetY()+6, 40, 40, false, opts, 0, "")
	}

	pdf.SetY(-30)
	pdf.SetFont("Arial", "I", 10)
	pdf.CellFormat(0, 10, "Thank you for shopping with "+StoreName, "T", 0, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render invoice %s: %w", o.OrderID, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
